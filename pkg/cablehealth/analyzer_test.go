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

package cablehealth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		latencyMs float64
		lossPct   float64
		jitterMs  float64
		want      float64
	}{
		{"perfect", 1, 0, 0, 100},
		{"moderate latency", 60, 0, 0, 80},
		{"severe latency", 150, 0, 0, 60},
		{"moderate loss", 1, 3, 0, 80},
		{"severe loss", 1, 10, 0, 60},
		{"moderate jitter", 1, 0, 15, 90},
		{"severe jitter", 1, 0, 25, 80},
		{"everything bad", 150, 10, 25, 0},
		{"boundary latency not penalized", 50, 0, 0, 100},
		{"boundary loss not penalized", 1, 2, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.latencyMs, tt.lossPct, tt.jitterMs), 0.001)
		})
	}
}

func TestScoreNeverNegative(t *testing.T) {
	assert.InDelta(t, 0.0, Score(1000, 100, 1000), 0.001)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		score float64
		want  models.CableHealthStatus
	}{
		{100, models.CableHealthExcellent},
		{90, models.CableHealthExcellent},
		{89.9, models.CableHealthGood},
		{80, models.CableHealthGood},
		{79, models.CableHealthFair},
		{60, models.CableHealthFair},
		{59, models.CableHealthPoor},
		{40, models.CableHealthPoor},
		{39, models.CableHealthCritical},
		{0, models.CableHealthCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.score), "score %.1f", tt.score)
	}
}

func TestValidateCableSpeed(t *testing.T) {
	// CAT6 is rated 1000 Mbps; 80% of that is the floor.
	assert.True(t, ValidateCableSpeed(models.CableTypeCat6, 1000))
	assert.True(t, ValidateCableSpeed(models.CableTypeCat6, 800))
	assert.False(t, ValidateCableSpeed(models.CableTypeCat6, 799))

	assert.True(t, ValidateCableSpeed(models.CableTypeCat6a, 9000))
	assert.False(t, ValidateCableSpeed(models.CableTypeCat6a, 100))

	// Unknown media always validate.
	assert.True(t, ValidateCableSpeed(models.CableTypeUnknown, 1))
	assert.True(t, ValidateCableSpeed(models.CableType("WET_STRING"), 1))
}

func TestMetricFromAvailableResult(t *testing.T) {
	result := &models.ProbeResult{
		Target:       models.Target{Host: "10.0.0.2"},
		Available:    true,
		LatencyMin:   2 * time.Millisecond,
		LatencyAvg:   4 * time.Millisecond,
		LatencyMax:   6 * time.Millisecond,
		PacketLoss:   0,
		PacketsSent:  10,
		PacketsRecvd: 10,
		CheckedAt:    time.Now().UTC(),
	}

	metric := MetricFrom("l1", result)

	require.NotEmpty(t, metric.ID)
	assert.Equal(t, "l1", metric.LinkID)
	assert.InDelta(t, 4.0, metric.LatencyAvgMs, 0.001)
	assert.InDelta(t, 4.0, metric.JitterMs, 0.001)
	assert.InDelta(t, 100.0, metric.HealthScore, 0.001)
	assert.Equal(t, models.CableHealthExcellent, metric.Status)
	assert.Equal(t, result.CheckedAt, metric.MeasuredAt)
}

func TestMetricFromUnavailableResult(t *testing.T) {
	result := &models.ProbeResult{
		Target:      models.Target{Host: "10.0.0.2"},
		Available:   false,
		PacketLoss:  100,
		PacketsSent: 10,
		Failure:     models.FailureTimeout,
		CheckedAt:   time.Now().UTC(),
	}

	metric := MetricFrom("l1", result)

	assert.Equal(t, models.CableHealthCritical, metric.Status)
	assert.InDelta(t, 0.0, metric.HealthScore, 0.001)
	assert.InDelta(t, 100.0, metric.PacketLossPct, 0.001)
}
