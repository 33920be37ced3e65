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

// Statistics is the aggregate snapshot served by the dashboard's
// statistics endpoint.
type Statistics struct {
	DevicesByStatus    map[DeviceStatus]int  `json:"devices_by_status"`
	DevicesByType      map[DeviceType]int    `json:"devices_by_type"`
	LinksByStatus      map[LinkStatus]int    `json:"links_by_status"`
	EventsBySeverity   map[EventSeverity]int `json:"events_by_severity"`
	TotalDevices       int                   `json:"total_devices"`
	TotalLinks         int                   `json:"total_links"`
	TotalPorts         int                   `json:"total_ports"`
	UnacknowledgedEvts int                   `json:"unacknowledged_events"`
	GeneratedAt        time.Time             `json:"generated_at"`
}
