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

// Package models provides the data model shared by the registry, the
// monitoring engine, and the API layer.
package models

import "time"

// DeviceType classifies a network device.
type DeviceType string

const (
	DeviceTypeRouter       DeviceType = "ROUTER"
	DeviceTypeSwitch       DeviceType = "SWITCH"
	DeviceTypeServer       DeviceType = "SERVER"
	DeviceTypePC           DeviceType = "PC"
	DeviceTypeAP           DeviceType = "AP"
	DeviceTypePrinter      DeviceType = "PRINTER"
	DeviceTypeCamera       DeviceType = "CAMERA"
	DeviceTypeFirewall     DeviceType = "FIREWALL"
	DeviceTypeLoadBalancer DeviceType = "LOAD_BALANCER"
	DeviceTypeUnknown      DeviceType = "UNKNOWN"
)

// DeviceStatus is the last-known operational status of a device. It is
// mutated only by the monitor cycle (or discovery upserts), never by probes
// directly.
type DeviceStatus string

const (
	DeviceStatusUp          DeviceStatus = "UP"
	DeviceStatusDown        DeviceStatus = "DOWN"
	DeviceStatusUnreachable DeviceStatus = "UNREACHABLE"
	DeviceStatusUnknown     DeviceStatus = "UNKNOWN"
	DeviceStatusMaintenance DeviceStatus = "MAINTENANCE"
)

// Device is a monitored inventory entry.
type Device struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	DeviceType    DeviceType   `json:"device_type"`
	IP            string       `json:"ip"`
	MAC           string       `json:"mac,omitempty"`
	Hostname      string       `json:"hostname,omitempty"`
	Location      string       `json:"location,omitempty"`
	SNMPCommunity string       `json:"snmp_community,omitempty"`
	IsMonitored   bool         `json:"is_monitored"`
	Status        DeviceStatus `json:"status"`
	LastSeen      *time.Time   `json:"last_seen,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ValidDeviceType reports whether t is a known device type.
func ValidDeviceType(t DeviceType) bool {
	switch t {
	case DeviceTypeRouter, DeviceTypeSwitch, DeviceTypeServer, DeviceTypePC,
		DeviceTypeAP, DeviceTypePrinter, DeviceTypeCamera, DeviceTypeFirewall,
		DeviceTypeLoadBalancer, DeviceTypeUnknown:
		return true
	default:
		return false
	}
}

// ValidDeviceStatus reports whether s is a known device status.
func ValidDeviceStatus(s DeviceStatus) bool {
	switch s {
	case DeviceStatusUp, DeviceStatusDown, DeviceStatusUnreachable,
		DeviceStatusUnknown, DeviceStatusMaintenance:
		return true
	default:
		return false
	}
}
