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

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// Statistics aggregates inventory and event counts for the dashboard.
func (db *DB) Statistics(ctx context.Context) (*models.Statistics, error) {
	stats := &models.Statistics{
		DevicesByStatus:  make(map[models.DeviceStatus]int),
		DevicesByType:    make(map[models.DeviceType]int),
		LinksByStatus:    make(map[models.LinkStatus]int),
		EventsBySeverity: make(map[models.EventSeverity]int),
		GeneratedAt:      time.Now().UTC(),
	}

	rows, err := db.pool.Query(ctx, `SELECT status, count(*) FROM devices GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count devices by status: %w", err)
	}

	for rows.Next() {
		var (
			status models.DeviceStatus
			count  int
		)

		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}

		stats.DevicesByStatus[status] = count
		stats.TotalDevices += count
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.pool.Query(ctx, `SELECT device_type, count(*) FROM devices GROUP BY device_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count devices by type: %w", err)
	}

	for rows.Next() {
		var (
			deviceType models.DeviceType
			count      int
		)

		if err := rows.Scan(&deviceType, &count); err != nil {
			rows.Close()
			return nil, err
		}

		stats.DevicesByType[deviceType] = count
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.pool.Query(ctx, `SELECT status, count(*) FROM links GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count links: %w", err)
	}

	for rows.Next() {
		var (
			status models.LinkStatus
			count  int
		)

		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}

		stats.LinksByStatus[status] = count
		stats.TotalLinks += count
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.pool.Query(ctx, `SELECT severity, count(*) FROM events GROUP BY severity`)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	for rows.Next() {
		var (
			severity models.EventSeverity
			count    int
		)

		if err := rows.Scan(&severity, &count); err != nil {
			rows.Close()
			return nil, err
		}

		stats.EventsBySeverity[severity] = count
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := db.pool.QueryRow(ctx, `SELECT count(*) FROM ports`).Scan(&stats.TotalPorts); err != nil {
		return nil, fmt.Errorf("failed to count ports: %w", err)
	}

	if err := db.pool.QueryRow(ctx,
		`SELECT count(*) FROM events WHERE NOT acknowledged`).Scan(&stats.UnacknowledgedEvts); err != nil {
		return nil, fmt.Errorf("failed to count unacknowledged events: %w", err)
	}

	return stats, nil
}
