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

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// ErrUnknownProtocol is returned for a target protocol no prober handles.
var ErrUnknownProtocol = errors.New("unknown probe protocol")

// Dispatcher routes each target to the prober for its protocol. Targets
// without a protocol go to ICMP.
type Dispatcher struct {
	icmp Prober
	tcp  Prober
	snmp Prober
}

var _ Prober = (*Dispatcher)(nil)

// NewDispatcher builds a dispatcher. Any prober may be nil; targets for a
// missing prober fail with ErrUnknownProtocol.
func NewDispatcher(icmp, tcp, snmp Prober) *Dispatcher {
	return &Dispatcher{icmp: icmp, tcp: tcp, snmp: snmp}
}

// Probe implements Prober.
func (d *Dispatcher) Probe(ctx context.Context, target models.Target) (models.ProbeResult, error) {
	var prober Prober

	switch target.Protocol {
	case models.ProtocolICMP, "":
		prober = d.icmp
	case models.ProtocolTCP:
		prober = d.tcp
	case models.ProtocolSNMP:
		prober = d.snmp
	default:
		return models.ProbeResult{}, ErrUnknownProtocol
	}

	if prober == nil {
		return models.ProbeResult{}, ErrUnknownProtocol
	}

	return prober.Probe(ctx, target)
}
