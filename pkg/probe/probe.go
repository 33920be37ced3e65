/*
 * Copyright 2025 Bitshield Networks.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package probe performs single reachability/latency measurements. A failed
// probe is a normal result variant, never an error: Probe only returns an
// error for caller mistakes (bad target) or context cancellation.
package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// ErrEmptyTarget is returned when a target has no host to probe.
var ErrEmptyTarget = errors.New("probe target has no host")

// Prober performs one measurement against one target.
type Prober interface {
	Probe(ctx context.Context, target models.Target) (models.ProbeResult, error)
}

// classifyFailure maps a network error to the probe failure taxonomy.
func classifyFailure(err error) models.ProbeFailure {
	if err == nil {
		return models.FailureNone
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return models.FailureTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.FailureTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return models.FailureUnreachable
	}

	return models.FailureProtocol
}

func failedResult(target models.Target, sent int, failure models.ProbeFailure) models.ProbeResult {
	return models.ProbeResult{
		Target:      target,
		Available:   false,
		PacketLoss:  100,
		PacketsSent: sent,
		Failure:     failure,
		CheckedAt:   time.Now().UTC(),
	}
}

// summarize folds a set of round-trip times into a result. Loss is a
// percentage of sent packets.
func summarize(target models.Target, sent int, rtts []time.Duration) models.ProbeResult {
	result := models.ProbeResult{
		Target:       target,
		PacketsSent:  sent,
		PacketsRecvd: len(rtts),
		CheckedAt:    time.Now().UTC(),
	}

	if sent > 0 {
		result.PacketLoss = 100 * float64(sent-len(rtts)) / float64(sent)
	}

	if len(rtts) == 0 {
		result.Failure = models.FailureTimeout
		return result
	}

	result.Available = true

	var sum time.Duration

	result.LatencyMin = rtts[0]
	result.LatencyMax = rtts[0]

	for _, rtt := range rtts {
		sum += rtt

		if rtt < result.LatencyMin {
			result.LatencyMin = rtt
		}

		if rtt > result.LatencyMax {
			result.LatencyMax = rtt
		}
	}

	result.LatencyAvg = sum / time.Duration(len(rtts))

	return result
}
