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

// LinkStatus is the operational status of a link between two devices.
type LinkStatus string

const (
	LinkStatusUp       LinkStatus = "UP"
	LinkStatusDown     LinkStatus = "DOWN"
	LinkStatusDegraded LinkStatus = "DEGRADED"
	LinkStatusUnknown  LinkStatus = "UNKNOWN"
)

// LinkType classifies the connection.
type LinkType string

const (
	LinkTypePhysical LinkType = "PHYSICAL"
	LinkTypeLogical  LinkType = "LOGICAL"
	LinkTypeVirtual  LinkType = "VIRTUAL"
	LinkTypeTunnel   LinkType = "TUNNEL"
	LinkTypeUnknown  LinkType = "UNKNOWN"
)

// CableType is the physical medium of a link.
type CableType string

const (
	CableTypeCat5    CableType = "CAT5"
	CableTypeCat5e   CableType = "CAT5E"
	CableTypeCat6    CableType = "CAT6"
	CableTypeCat6a   CableType = "CAT6A"
	CableTypeCat7    CableType = "CAT7"
	CableTypeCat8    CableType = "CAT8"
	CableTypeFiberSM CableType = "FIBER_SM"
	CableTypeFiberMM CableType = "FIBER_MM"
	CableTypeCoax    CableType = "COAX"
	CableTypeUnknown CableType = "UNKNOWN"
)

// Link connects two devices, optionally through specific ports. Quality
// fields are refreshed by the monitor cycle's link pass.
type Link struct {
	ID             string     `json:"id"`
	Name           string     `json:"name,omitempty"`
	SourceDeviceID string     `json:"source_device_id"`
	TargetDeviceID string     `json:"target_device_id"`
	SourcePortID   string     `json:"source_port_id,omitempty"`
	TargetPortID   string     `json:"target_port_id,omitempty"`
	LinkType       LinkType   `json:"link_type"`
	Status         LinkStatus `json:"status"`
	CableType      CableType  `json:"cable_type,omitempty"`
	LengthMeters   float64    `json:"length_meters,omitempty"`
	SpeedMbps      int64      `json:"speed_mbps,omitempty"`
	LatencyMs      float64    `json:"latency_ms,omitempty"`
	PacketLossPct  float64    `json:"packet_loss_percent,omitempty"`
	JitterMs       float64    `json:"jitter_ms,omitempty"`
	LastChecked    *time.Time `json:"last_checked,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
