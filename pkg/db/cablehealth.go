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

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

const cableHealthColumns = `id, link_id, latency_min_ms, latency_avg_ms,
	latency_max_ms, packet_loss_percent, jitter_ms, health_score, status,
	measured_at`

func scanCableHealthMetric(row pgx.Row) (*models.CableHealthMetric, error) {
	var m models.CableHealthMetric

	err := row.Scan(&m.ID, &m.LinkID, &m.LatencyMinMs, &m.LatencyAvgMs,
		&m.LatencyMaxMs, &m.PacketLossPct, &m.JitterMs, &m.HealthScore,
		&m.Status, &m.MeasuredAt)
	if err != nil {
		return nil, translateError(err)
	}

	return &m, nil
}

// InsertCableHealthMetric appends one sample to the link's time series.
func (db *DB) InsertCableHealthMetric(ctx context.Context, metric *models.CableHealthMetric) error {
	if metric.ID == "" {
		metric.ID = uuid.NewString()
	}

	if metric.MeasuredAt.IsZero() {
		metric.MeasuredAt = time.Now().UTC()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO cable_health_metrics (id, link_id, latency_min_ms,
			latency_avg_ms, latency_max_ms, packet_loss_percent, jitter_ms,
			health_score, status, measured_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		metric.ID, metric.LinkID, metric.LatencyMinMs, metric.LatencyAvgMs,
		metric.LatencyMaxMs, metric.PacketLossPct, metric.JitterMs,
		metric.HealthScore, metric.Status, metric.MeasuredAt)
	if err != nil {
		return fmt.Errorf("failed to store cable health metric: %w", translateError(err))
	}

	return nil
}

// CableHealthHistory returns samples for a link since the given time,
// newest first.
func (db *DB) CableHealthHistory(
	ctx context.Context, linkID string, since time.Time, limit int,
) ([]*models.CableHealthMetric, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+cableHealthColumns+` FROM cable_health_metrics
		WHERE link_id = $1 AND measured_at >= $2
		ORDER BY measured_at DESC
		LIMIT $3`,
		linkID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cable health history: %w", err)
	}
	defer rows.Close()

	var metrics []*models.CableHealthMetric

	for rows.Next() {
		m, err := scanCableHealthMetric(rows)
		if err != nil {
			return nil, err
		}

		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}

// UnhealthyLinks returns the most recent sample for each link whose latest
// health score is below the threshold.
func (db *DB) UnhealthyLinks(ctx context.Context, threshold float64) ([]*models.CableHealthMetric, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT ON (link_id) `+cableHealthColumns+`
		FROM cable_health_metrics
		ORDER BY link_id, measured_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unhealthy links: %w", err)
	}
	defer rows.Close()

	var metrics []*models.CableHealthMetric

	for rows.Next() {
		m, err := scanCableHealthMetric(rows)
		if err != nil {
			return nil, err
		}

		if m.HealthScore < threshold {
			metrics = append(metrics, m)
		}
	}

	return metrics, rows.Err()
}
