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

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// TCPProber measures reachability with a TCP connect. It is the fallback
// where ICMP is filtered or the datagram ICMP socket is unavailable. A
// refused connection still proves the host is up.
type TCPProber struct {
	timeout time.Duration
	logger  logger.Logger
}

var _ Prober = (*TCPProber)(nil)

const defaultTCPProbePort = 80

func NewTCPProber(timeout time.Duration, log logger.Logger) *TCPProber {
	if timeout == 0 {
		timeout = 2 * time.Second
	}

	return &TCPProber{timeout: timeout, logger: log}
}

// Probe dials the target once and reports the handshake round trip.
func (p *TCPProber) Probe(ctx context.Context, target models.Target) (models.ProbeResult, error) {
	if target.Host == "" {
		return models.ProbeResult{}, ErrEmptyTarget
	}

	port := target.Port
	if port == 0 {
		port = defaultTCPProbePort
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()

	var dialer net.Dialer

	conn, err := dialer.DialContext(probeCtx, "tcp", fmt.Sprintf("%s:%d", target.Host, port))
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			// RST received: port closed but host alive.
			return summarize(target, 1, []time.Duration{time.Since(start)}), nil
		}

		if probeCtx.Err() != nil {
			return failedResult(target, 1, models.FailureTimeout), nil
		}

		return failedResult(target, 1, classifyFailure(err)), nil
	}

	rtt := time.Since(start)

	if err := conn.Close(); err != nil {
		p.logger.Debug().Err(err).Msg("failed to close probe connection")
	}

	return summarize(target, 1, []time.Duration{rtt}), nil
}
