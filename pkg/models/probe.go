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

package models

import "time"

// ProbeProtocol selects how a target is measured.
type ProbeProtocol string

const (
	ProtocolICMP ProbeProtocol = "icmp"
	ProtocolTCP  ProbeProtocol = "tcp"
	ProtocolSNMP ProbeProtocol = "snmp"
)

// ProbeFailure classifies why a probe did not succeed. Failure is a normal
// result variant, not a server error.
type ProbeFailure string

const (
	FailureNone        ProbeFailure = ""
	FailureTimeout     ProbeFailure = "timeout"
	FailureUnreachable ProbeFailure = "unreachable"
	FailureProtocol    ProbeFailure = "protocol-error"
)

// Target is a single address to probe. DeviceID carries the registry key
// through the sweep so results can be diffed against prior status.
type Target struct {
	DeviceID  string
	Host      string
	Port      int
	Protocol  ProbeProtocol
	Community string
}

// ProbeResult is the outcome of one reachability/latency measurement.
// Latency fields are only meaningful when Available is true.
type ProbeResult struct {
	Target       Target
	Available    bool
	LatencyMin   time.Duration
	LatencyAvg   time.Duration
	LatencyMax   time.Duration
	PacketLoss   float64
	PacketsSent  int
	PacketsRecvd int
	Failure      ProbeFailure
	CheckedAt    time.Time
}

// JitterMs is the spread between the slowest and fastest reply,
// in milliseconds.
func (r *ProbeResult) JitterMs() float64 {
	if !r.Available {
		return 0
	}

	return float64(r.LatencyMax-r.LatencyMin) / float64(time.Millisecond)
}

// LatencyAvgMs is the average round trip in milliseconds.
func (r *ProbeResult) LatencyAvgMs() float64 {
	return float64(r.LatencyAvg) / float64(time.Millisecond)
}
