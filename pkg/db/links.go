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

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

const linkColumns = `id, name, source_device_id, target_device_id,
	source_port_id, target_port_id, link_type, status, cable_type,
	length_meters, speed_mbps, latency_ms, packet_loss_percent, jitter_ms,
	last_checked, created_at, updated_at`

func scanLink(row pgx.Row) (*models.Link, error) {
	var l models.Link

	err := row.Scan(&l.ID, &l.Name, &l.SourceDeviceID, &l.TargetDeviceID,
		&l.SourcePortID, &l.TargetPortID, &l.LinkType, &l.Status, &l.CableType,
		&l.LengthMeters, &l.SpeedMbps, &l.LatencyMs, &l.PacketLossPct,
		&l.JitterMs, &l.LastChecked, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}

	return &l, nil
}

// CreateLink inserts a new link between two devices.
func (db *DB) CreateLink(ctx context.Context, link *models.Link) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}

	if link.LinkType == "" {
		link.LinkType = models.LinkTypePhysical
	}

	if link.Status == "" {
		link.Status = models.LinkStatusUnknown
	}

	if link.CableType == "" {
		link.CableType = models.CableTypeUnknown
	}

	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO links (id, name, source_device_id, target_device_id,
			source_port_id, target_port_id, link_type, status, cable_type,
			length_meters, speed_mbps, latency_ms, packet_loss_percent,
			jitter_ms, last_checked, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		link.ID, link.Name, link.SourceDeviceID, link.TargetDeviceID,
		link.SourcePortID, link.TargetPortID, link.LinkType, link.Status,
		link.CableType, link.LengthMeters, link.SpeedMbps, link.LatencyMs,
		link.PacketLossPct, link.JitterMs, link.LastChecked,
		link.CreatedAt, link.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to store link: %w", translateError(err))
	}

	return nil
}

// GetLink fetches a link by id.
func (db *DB) GetLink(ctx context.Context, id string) (*models.Link, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = $1`, id)

	return scanLink(row)
}

// ListLinks returns a filtered, paginated link listing.
func (db *DB) ListLinks(
	ctx context.Context, filter LinkFilter, page models.Page,
) (*models.PagedResult[models.Link], error) {
	var (
		clauses []string
		args    []interface{}
	)

	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	if filter.DeviceID != "" {
		args = append(args, filter.DeviceID)
		clauses = append(clauses,
			fmt.Sprintf("(source_device_id = $%d OR target_device_id = $%d)", len(args), len(args)))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := db.pool.QueryRow(ctx,
		`SELECT count(*) FROM links`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count links: %w", err)
	}

	args = append(args, page.Limit(), page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM links%s ORDER BY id LIMIT $%d OFFSET $%d`,
		linkColumns, where, len(args)-1, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	items := make([]models.Link, 0, page.Limit())

	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}

		items = append(items, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("link row iteration failed: %w", err)
	}

	return &models.PagedResult[models.Link]{
		Items:    items,
		Total:    total,
		Page:     page.Number,
		PageSize: page.Size,
	}, nil
}

// ListAllLinks returns every link, used by the monitor cycle's link pass.
func (db *DB) ListAllLinks(ctx context.Context) ([]*models.Link, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+linkColumns+` FROM links ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []*models.Link

	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}

		links = append(links, l)
	}

	return links, rows.Err()
}

// UpdateLink rewrites a link's inventory fields.
func (db *DB) UpdateLink(ctx context.Context, link *models.Link) error {
	link.UpdatedAt = time.Now().UTC()

	tag, err := db.pool.Exec(ctx,
		`UPDATE links SET name=$2, source_device_id=$3, target_device_id=$4,
			source_port_id=$5, target_port_id=$6, link_type=$7, status=$8,
			cable_type=$9, length_meters=$10, speed_mbps=$11, updated_at=$12
		WHERE id = $1`,
		link.ID, link.Name, link.SourceDeviceID, link.TargetDeviceID,
		link.SourcePortID, link.TargetPortID, link.LinkType, link.Status,
		link.CableType, link.LengthMeters, link.SpeedMbps, link.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update link: %w", translateError(err))
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateLinkHealth writes the quality fields measured by a link test in one
// statement, keeping the status row versioned by updated_at.
func (db *DB) UpdateLinkHealth(
	ctx context.Context, id string, status models.LinkStatus,
	latencyMs, lossPct, jitterMs float64, checkedAt time.Time,
) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE links SET status=$2, latency_ms=$3, packet_loss_percent=$4,
			jitter_ms=$5, last_checked=$6, updated_at=now()
		WHERE id = $1`,
		id, status, latencyMs, lossPct, jitterMs, checkedAt)
	if err != nil {
		return fmt.Errorf("failed to update link health: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteLink removes a link.
func (db *DB) DeleteLink(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
