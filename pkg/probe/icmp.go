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
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

const (
	protocolICMP    = 1
	icmpPayload     = "bitshield-netmon"
	icmpReadBufSize = 1500
)

// ICMPPinger measures reachability and latency with ICMP echo requests over
// an unprivileged datagram socket, so the server does not need raw-socket
// capabilities.
type ICMPPinger struct {
	timeout time.Duration
	count   int
	logger  logger.Logger
}

var _ Prober = (*ICMPPinger)(nil)

// NewICMPPinger builds a pinger sending count echoes per probe, each bounded
// by timeout.
func NewICMPPinger(timeout time.Duration, count int, log logger.Logger) *ICMPPinger {
	if timeout == 0 {
		timeout = 2 * time.Second
	}

	if count == 0 {
		count = 3
	}

	return &ICMPPinger{timeout: timeout, count: count, logger: log}
}

// Probe sends the configured number of echoes and summarizes the replies.
// Network failure comes back as an unavailable result, not an error.
func (p *ICMPPinger) Probe(ctx context.Context, target models.Target) (models.ProbeResult, error) {
	if target.Host == "" {
		return models.ProbeResult{}, ErrEmptyTarget
	}

	addr, err := net.ResolveIPAddr("ip4", target.Host)
	if err != nil {
		return failedResult(target, 0, models.FailureUnreachable), nil
	}

	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		// No socket at all is an environment problem, not a probe result.
		return models.ProbeResult{}, err
	}

	defer func() {
		if cerr := conn.Close(); cerr != nil {
			p.logger.Debug().Err(cerr).Msg("failed to close icmp socket")
		}
	}()

	id := os.Getpid() & 0xffff
	dst := &net.UDPAddr{IP: addr.IP}

	var rtts []time.Duration

	sent := 0

	for seq := 0; seq < p.count; seq++ {
		if ctx.Err() != nil {
			return models.ProbeResult{}, ctx.Err()
		}

		rtt, err := p.echo(conn, dst, id, seq)
		sent++

		if err != nil {
			if classifyFailure(err) != models.FailureTimeout {
				p.logger.Debug().
					Err(err).
					Str("host", target.Host).
					Msg("icmp echo failed")
			}

			continue
		}

		rtts = append(rtts, rtt)
	}

	result := summarize(target, sent, rtts)
	if !result.Available && result.Failure == models.FailureNone {
		result.Failure = models.FailureTimeout
	}

	return result, nil
}

func (p *ICMPPinger) echo(conn *icmp.PacketConn, dst net.Addr, id, seq int) (time.Duration, error) {
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   id,
			Seq:  seq,
			Data: []byte(icmpPayload),
		},
	}

	encoded, err := msg.Marshal(nil)
	if err != nil {
		return 0, err
	}

	if err := conn.SetDeadline(time.Now().Add(p.timeout)); err != nil {
		return 0, err
	}

	start := time.Now()

	if _, err := conn.WriteTo(encoded, dst); err != nil {
		return 0, err
	}

	buf := make([]byte, icmpReadBufSize)

	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			return 0, err
		}

		reply, err := icmp.ParseMessage(protocolICMP, buf[:n])
		if err != nil {
			continue
		}

		echo, ok := reply.Body.(*icmp.Echo)
		if !ok || reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}

		// Unprivileged sockets rewrite the echo ID, so match on
		// sequence only.
		if echo.Seq != seq {
			continue
		}

		return time.Since(start), nil
	}
}
