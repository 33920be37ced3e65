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

// Package cablehealth scores link quality from latency, loss, and jitter
// samples and bands the score into operator-facing ratings.
package cablehealth

import (
	"time"

	"github.com/google/uuid"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// Scoring thresholds. Each dimension deducts from a perfect 100.
const (
	latencySevereMs  = 100.0
	latencyWarnMs    = 50.0
	lossSeverePct    = 5.0
	lossWarnPct      = 2.0
	jitterSevereMs   = 20.0
	jitterWarnMs     = 10.0
	penaltySevere    = 40.0
	penaltyWarn      = 20.0
	jitterPenaltyMax = 20.0
	jitterPenaltyMid = 10.0
)

// ratedSpeedMbps is the nominal capacity of each cable medium.
var ratedSpeedMbps = map[models.CableType]int64{
	models.CableTypeCat5:    100,
	models.CableTypeCat5e:   1000,
	models.CableTypeCat6:    1000,
	models.CableTypeCat6a:   10000,
	models.CableTypeCat7:    10000,
	models.CableTypeCat8:    40000,
	models.CableTypeFiberSM: 100000,
	models.CableTypeFiberMM: 10000,
	models.CableTypeCoax:    1000,
}

// speedTolerance is the fraction of rated speed a healthy link should reach.
const speedTolerance = 0.8

// Score computes a 0-100 health score from link quality measurements.
// Deductions stack across dimensions but the score never goes below zero.
func Score(latencyAvgMs, packetLossPct, jitterMs float64) float64 {
	score := 100.0

	switch {
	case latencyAvgMs > latencySevereMs:
		score -= penaltySevere
	case latencyAvgMs > latencyWarnMs:
		score -= penaltyWarn
	}

	switch {
	case packetLossPct > lossSeverePct:
		score -= penaltySevere
	case packetLossPct > lossWarnPct:
		score -= penaltyWarn
	}

	switch {
	case jitterMs > jitterSevereMs:
		score -= jitterPenaltyMax
	case jitterMs > jitterWarnMs:
		score -= jitterPenaltyMid
	}

	if score < 0 {
		score = 0
	}

	return score
}

// StatusFor bands a health score into a rating.
func StatusFor(score float64) models.CableHealthStatus {
	switch {
	case score >= 90:
		return models.CableHealthExcellent
	case score >= 80:
		return models.CableHealthGood
	case score >= 60:
		return models.CableHealthFair
	case score >= 40:
		return models.CableHealthPoor
	default:
		return models.CableHealthCritical
	}
}

// RatedSpeedMbps returns the nominal capacity for a cable type, or zero when
// the medium is unknown.
func RatedSpeedMbps(cable models.CableType) int64 {
	return ratedSpeedMbps[cable]
}

// ValidateCableSpeed reports whether a measured speed is within tolerance of
// the cable's rating. Unknown media always validate.
func ValidateCableSpeed(cable models.CableType, measuredMbps int64) bool {
	rated, ok := ratedSpeedMbps[cable]
	if !ok || rated == 0 {
		return true
	}

	return float64(measuredMbps) >= float64(rated)*speedTolerance
}

// MetricFrom converts a link probe result into an append-only health sample.
// Unavailable probes produce a zero-score CRITICAL sample so outages show up
// in the history.
func MetricFrom(linkID string, result *models.ProbeResult) *models.CableHealthMetric {
	metric := &models.CableHealthMetric{
		ID:         uuid.NewString(),
		LinkID:     linkID,
		MeasuredAt: result.CheckedAt,
	}

	if metric.MeasuredAt.IsZero() {
		metric.MeasuredAt = time.Now().UTC()
	}

	if !result.Available {
		metric.PacketLossPct = 100
		metric.Status = models.CableHealthCritical

		return metric
	}

	metric.LatencyMinMs = float64(result.LatencyMin) / float64(time.Millisecond)
	metric.LatencyAvgMs = result.LatencyAvgMs()
	metric.LatencyMaxMs = float64(result.LatencyMax) / float64(time.Millisecond)
	metric.PacketLossPct = result.PacketLoss
	metric.JitterMs = result.JitterMs()
	metric.HealthScore = Score(metric.LatencyAvgMs, metric.PacketLossPct, metric.JitterMs)
	metric.Status = StatusFor(metric.HealthScore)

	return metric
}
