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

// EventType identifies the detected condition an event records.
type EventType string

const (
	EventDeviceUp            EventType = "DEVICE_UP"
	EventDeviceDown          EventType = "DEVICE_DOWN"
	EventDeviceUnreachable   EventType = "DEVICE_UNREACHABLE"
	EventDeviceDiscovered    EventType = "DEVICE_DISCOVERED"
	EventPortUp              EventType = "PORT_UP"
	EventPortDown            EventType = "PORT_DOWN"
	EventLinkUp              EventType = "LINK_UP"
	EventLinkDown            EventType = "LINK_DOWN"
	EventLinkDegraded        EventType = "LINK_DEGRADED"
	EventHighLatency         EventType = "HIGH_LATENCY"
	EventHighPacketLoss      EventType = "HIGH_PACKET_LOSS"
	EventHighJitter          EventType = "HIGH_JITTER"
	EventCableHealthDegraded EventType = "CABLE_HEALTH_DEGRADED"
	EventCableHealthCritical EventType = "CABLE_HEALTH_CRITICAL"
	EventScanCompleted       EventType = "SCAN_COMPLETED"
	EventScanFailed          EventType = "SCAN_FAILED"
)

// EventSeverity ranks events for triage.
type EventSeverity string

const (
	SeverityCritical EventSeverity = "CRITICAL"
	SeverityHigh     EventSeverity = "HIGH"
	SeverityMedium   EventSeverity = "MEDIUM"
	SeverityLow      EventSeverity = "LOW"
	SeverityInfo     EventSeverity = "INFO"
)

// Event is an immutable record of a detected condition. After creation only
// the acknowledgment and resolution fields may change.
type Event struct {
	ID             string            `json:"id"`
	EventType      EventType         `json:"event_type"`
	Severity       EventSeverity     `json:"severity"`
	DeviceID       string            `json:"device_id,omitempty"`
	LinkID         string            `json:"link_id,omitempty"`
	PortID         string            `json:"port_id,omitempty"`
	Message        string            `json:"message"`
	Details        map[string]string `json:"details,omitempty"`
	Source         string            `json:"source"`
	Acknowledged   bool              `json:"acknowledged"`
	AcknowledgedBy string            `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time        `json:"acknowledged_at,omitempty"`
	Resolved       bool              `json:"resolved"`
	ResolvedBy     string            `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time        `json:"resolved_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ValidEventSeverity reports whether s is a known severity.
func ValidEventSeverity(s EventSeverity) bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	default:
		return false
	}
}
