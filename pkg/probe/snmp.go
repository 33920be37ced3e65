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
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

const oidSysUpTime = ".1.3.6.1.2.1.1.3.0"

// SNMPProber measures reachability by querying sysUpTime. Useful for
// devices that filter ICMP but expose SNMP.
type SNMPProber struct {
	timeout time.Duration
	logger  logger.Logger
}

var _ Prober = (*SNMPProber)(nil)

func NewSNMPProber(timeout time.Duration, log logger.Logger) *SNMPProber {
	if timeout == 0 {
		timeout = 2 * time.Second
	}

	return &SNMPProber{timeout: timeout, logger: log}
}

// Probe issues one SNMP GET for sysUpTime and reports the round trip.
func (p *SNMPProber) Probe(ctx context.Context, target models.Target) (models.ProbeResult, error) {
	if target.Host == "" {
		return models.ProbeResult{}, ErrEmptyTarget
	}

	community := target.Community
	if community == "" {
		community = "public"
	}

	port := uint16(target.Port)
	if port == 0 {
		port = 161
	}

	client := &gosnmp.GoSNMP{
		Target:    target.Host,
		Port:      port,
		Community: community,
		Version:   gosnmp.Version2c,
		Timeout:   p.timeout,
		Retries:   0,
		Context:   ctx,
	}

	if err := client.Connect(); err != nil {
		return failedResult(target, 1, classifyFailure(err)), nil
	}

	defer func() {
		if cerr := client.Conn.Close(); cerr != nil {
			p.logger.Debug().Err(cerr).Msg("failed to close snmp connection")
		}
	}()

	start := time.Now()

	packet, err := client.Get([]string{oidSysUpTime})
	if err != nil {
		return failedResult(target, 1, classifyFailure(err)), nil
	}

	if packet.Error != gosnmp.NoError {
		return failedResult(target, 1, models.FailureProtocol), nil
	}

	return summarize(target, 1, []time.Duration{time.Since(start)}), nil
}
