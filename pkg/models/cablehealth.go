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

// CableHealthStatus bands a health score into an operator-facing rating.
type CableHealthStatus string

const (
	CableHealthExcellent CableHealthStatus = "EXCELLENT"
	CableHealthGood      CableHealthStatus = "GOOD"
	CableHealthFair      CableHealthStatus = "FAIR"
	CableHealthPoor      CableHealthStatus = "POOR"
	CableHealthCritical  CableHealthStatus = "CRITICAL"
	CableHealthUnknown   CableHealthStatus = "UNKNOWN"
)

// CableHealthMetric is a point-in-time link-quality sample. The series is
// append-only, keyed by link.
type CableHealthMetric struct {
	ID            string            `json:"id"`
	LinkID        string            `json:"link_id"`
	LatencyMinMs  float64           `json:"latency_min_ms"`
	LatencyAvgMs  float64           `json:"latency_avg_ms"`
	LatencyMaxMs  float64           `json:"latency_max_ms"`
	PacketLossPct float64           `json:"packet_loss_percent"`
	JitterMs      float64           `json:"jitter_ms"`
	HealthScore   float64           `json:"health_score"`
	Status        CableHealthStatus `json:"status"`
	MeasuredAt    time.Time         `json:"measured_at"`
}
