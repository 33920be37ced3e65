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

const portColumns = `id, device_id, name, number, port_type, status, speed_mbps,
	rx_bytes, tx_bytes, rx_errors, tx_errors, last_polled, created_at, updated_at`

func scanPort(row pgx.Row) (*models.Port, error) {
	var (
		p                                      models.Port
		rxBytes, txBytes, rxErrors, txErrors   int64
	)

	err := row.Scan(&p.ID, &p.DeviceID, &p.Name, &p.Number, &p.PortType,
		&p.Status, &p.SpeedMbps, &rxBytes, &txBytes, &rxErrors, &txErrors,
		&p.LastPolled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}

	p.RxBytes = uint64(rxBytes)
	p.TxBytes = uint64(txBytes)
	p.RxErrors = uint64(rxErrors)
	p.TxErrors = uint64(txErrors)

	return &p, nil
}

// CreatePort inserts a new port for a device.
func (db *DB) CreatePort(ctx context.Context, port *models.Port) error {
	if port.ID == "" {
		port.ID = uuid.NewString()
	}

	if port.PortType == "" {
		port.PortType = models.PortTypeUnknown
	}

	if port.Status == "" {
		port.Status = models.PortStatusUnknown
	}

	now := time.Now().UTC()
	port.CreatedAt = now
	port.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO ports (id, device_id, name, number, port_type, status,
			speed_mbps, rx_bytes, tx_bytes, rx_errors, tx_errors, last_polled,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		port.ID, port.DeviceID, port.Name, port.Number, port.PortType,
		port.Status, port.SpeedMbps, int64(port.RxBytes), int64(port.TxBytes),
		int64(port.RxErrors), int64(port.TxErrors), port.LastPolled,
		port.CreatedAt, port.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to store port: %w", translateError(err))
	}

	return nil
}

// GetPort fetches a port by id.
func (db *DB) GetPort(ctx context.Context, id string) (*models.Port, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+portColumns+` FROM ports WHERE id = $1`, id)

	return scanPort(row)
}

// ListPorts returns ports, optionally restricted to one device, ordered by
// port number.
func (db *DB) ListPorts(
	ctx context.Context, deviceID string, page models.Page,
) (*models.PagedResult[models.Port], error) {
	where := ""

	var args []interface{}

	if deviceID != "" {
		where = " WHERE device_id = $1"
		args = append(args, deviceID)
	}

	var total int
	if err := db.pool.QueryRow(ctx,
		`SELECT count(*) FROM ports`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count ports: %w", err)
	}

	args = append(args, page.Limit(), page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM ports%s ORDER BY number, id LIMIT $%d OFFSET $%d`,
		portColumns, where, len(args)-1, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ports: %w", err)
	}
	defer rows.Close()

	items := make([]models.Port, 0, page.Limit())

	for rows.Next() {
		p, err := scanPort(rows)
		if err != nil {
			return nil, err
		}

		items = append(items, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("port row iteration failed: %w", err)
	}

	return &models.PagedResult[models.Port]{
		Items:    items,
		Total:    total,
		Page:     page.Number,
		PageSize: page.Size,
	}, nil
}

// UpdatePort rewrites a port's inventory fields.
func (db *DB) UpdatePort(ctx context.Context, port *models.Port) error {
	port.UpdatedAt = time.Now().UTC()

	tag, err := db.pool.Exec(ctx,
		`UPDATE ports SET name=$2, number=$3, port_type=$4, status=$5,
			speed_mbps=$6, updated_at=$7
		WHERE id = $1`,
		port.ID, port.Name, port.Number, port.PortType, port.Status,
		port.SpeedMbps, port.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update port: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdatePortStats writes the counters collected from the device over SNMP.
func (db *DB) UpdatePortStats(
	ctx context.Context, id string, stats models.PortStats, polledAt time.Time,
) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE ports SET status=$2, speed_mbps=$3, rx_bytes=$4, tx_bytes=$5,
			rx_errors=$6, tx_errors=$7, last_polled=$8, updated_at=now()
		WHERE id = $1`,
		id, stats.Status, stats.SpeedMbps, int64(stats.RxBytes),
		int64(stats.TxBytes), int64(stats.RxErrors), int64(stats.TxErrors),
		polledAt)
	if err != nil {
		return fmt.Errorf("failed to update port stats: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeletePort removes a port.
func (db *DB) DeletePort(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM ports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete port: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
