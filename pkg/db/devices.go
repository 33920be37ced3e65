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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

const deviceColumns = `id, name, device_type, ip, mac, hostname, location,
	snmp_community, is_monitored, status, last_seen, created_at, updated_at`

func scanDevice(row pgx.Row) (*models.Device, error) {
	var d models.Device

	err := row.Scan(&d.ID, &d.Name, &d.DeviceType, &d.IP, &d.MAC, &d.Hostname,
		&d.Location, &d.SNMPCommunity, &d.IsMonitored, &d.Status, &d.LastSeen,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}

	return &d, nil
}

// CreateDevice inserts a new device. A duplicate IP yields
// ErrDuplicateAddress.
func (db *DB) CreateDevice(ctx context.Context, device *models.Device) error {
	if device.ID == "" {
		device.ID = uuid.NewString()
	}

	if device.DeviceType == "" {
		device.DeviceType = models.DeviceTypeUnknown
	}

	if device.Status == "" {
		device.Status = models.DeviceStatusUnknown
	}

	now := time.Now().UTC()
	device.CreatedAt = now
	device.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO devices (id, name, device_type, ip, mac, hostname, location,
			snmp_community, is_monitored, status, last_seen, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		device.ID, device.Name, device.DeviceType, device.IP, device.MAC,
		device.Hostname, device.Location, device.SNMPCommunity,
		device.IsMonitored, device.Status, device.LastSeen,
		device.CreatedAt, device.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to store device: %w", translateError(err))
	}

	return nil
}

// GetDevice fetches a device by id.
func (db *DB) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)

	return scanDevice(row)
}

// GetDeviceByIP fetches a device by its network address.
func (db *DB) GetDeviceByIP(ctx context.Context, ip string) (*models.Device, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE ip = $1`, ip)

	return scanDevice(row)
}

// ListDevices returns a filtered, paginated device listing ordered by name.
func (db *DB) ListDevices(
	ctx context.Context, filter DeviceFilter, page models.Page,
) (*models.PagedResult[models.Device], error) {
	where, args := buildDeviceWhere(filter)

	var total int
	if err := db.pool.QueryRow(ctx,
		`SELECT count(*) FROM devices`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}

	args = append(args, page.Limit(), page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM devices%s ORDER BY name, id LIMIT $%d OFFSET $%d`,
		deviceColumns, where, len(args)-1, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	items := make([]models.Device, 0, page.Limit())

	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}

		items = append(items, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("device row iteration failed: %w", err)
	}

	return &models.PagedResult[models.Device]{
		Items:    items,
		Total:    total,
		Page:     page.Number,
		PageSize: page.Size,
	}, nil
}

func buildDeviceWhere(filter DeviceFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)

	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	if filter.Type != "" {
		args = append(args, filter.Type)
		clauses = append(clauses, fmt.Sprintf("device_type = $%d", len(args)))
	}

	if filter.Monitored != nil {
		args = append(args, *filter.Monitored)
		clauses = append(clauses, fmt.Sprintf("is_monitored = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListMonitoredDevices returns every device the monitor cycle should probe.
func (db *DB) ListMonitoredDevices(ctx context.Context) ([]*models.Device, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE is_monitored ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list monitored devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device

	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}

		devices = append(devices, d)
	}

	return devices, rows.Err()
}

// UpdateDevice rewrites the mutable inventory fields of a device.
func (db *DB) UpdateDevice(ctx context.Context, device *models.Device) error {
	device.UpdatedAt = time.Now().UTC()

	tag, err := db.pool.Exec(ctx,
		`UPDATE devices SET name=$2, device_type=$3, ip=$4, mac=$5, hostname=$6,
			location=$7, snmp_community=$8, is_monitored=$9, status=$10, updated_at=$11
		WHERE id = $1`,
		device.ID, device.Name, device.DeviceType, device.IP, device.MAC,
		device.Hostname, device.Location, device.SNMPCommunity,
		device.IsMonitored, device.Status, device.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", translateError(err))
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateDeviceStatus writes the versioned status row for a device in a
// single statement. Only the monitor cycle and discovery call this.
func (db *DB) UpdateDeviceStatus(
	ctx context.Context, id string, status models.DeviceStatus, lastSeen time.Time,
) error {
	var tag pgconn.CommandTag

	var err error

	if lastSeen.IsZero() {
		tag, err = db.pool.Exec(ctx,
			`UPDATE devices SET status=$2, updated_at=now() WHERE id = $1`,
			id, status)
	} else {
		tag, err = db.pool.Exec(ctx,
			`UPDATE devices SET status=$2, last_seen=$3, updated_at=now() WHERE id = $1`,
			id, status, lastSeen)
	}

	if err != nil {
		return fmt.Errorf("failed to update device status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteDevice removes a device; ports, links, and events referencing it are
// removed by the schema's cascade rules.
func (db *DB) DeleteDevice(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
