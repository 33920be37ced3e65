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

// PortStatus is the operational status of a switch/router port.
type PortStatus string

const (
	PortStatusUp       PortStatus = "UP"
	PortStatusDown     PortStatus = "DOWN"
	PortStatusDisabled PortStatus = "DISABLED"
	PortStatusError    PortStatus = "ERROR"
	PortStatusUnknown  PortStatus = "UNKNOWN"
	PortStatusTesting  PortStatus = "TESTING"
)

// PortType is the physical interface type.
type PortType string

const (
	PortTypeEthernet PortType = "ETHERNET"
	PortTypeFiber    PortType = "FIBER"
	PortTypeSFP      PortType = "SFP"
	PortTypeSFPPlus  PortType = "SFP+"
	PortTypeQSFP     PortType = "QSFP"
	PortTypeVirtual  PortType = "VIRTUAL"
	PortTypeLoopback PortType = "LOOPBACK"
	PortTypeUnknown  PortType = "UNKNOWN"
)

// Port belongs to exactly one device. Traffic counters are refreshed by the
// SNMP collector.
type Port struct {
	ID         string     `json:"id"`
	DeviceID   string     `json:"device_id"`
	Name       string     `json:"name"`
	Number     int        `json:"number"`
	PortType   PortType   `json:"port_type"`
	Status     PortStatus `json:"status"`
	SpeedMbps  int64      `json:"speed_mbps,omitempty"`
	RxBytes    uint64     `json:"rx_bytes"`
	TxBytes    uint64     `json:"tx_bytes"`
	RxErrors   uint64     `json:"rx_errors"`
	TxErrors   uint64     `json:"tx_errors"`
	LastPolled *time.Time `json:"last_polled,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// PortStats is a point-in-time counter snapshot for a port, as read from the
// device over SNMP.
type PortStats struct {
	Status    PortStatus
	SpeedMbps int64
	RxBytes   uint64
	TxBytes   uint64
	RxErrors  uint64
	TxErrors  uint64
}
