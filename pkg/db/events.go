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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

const eventColumns = `id, event_type, severity, device_id, link_id, port_id,
	message, details, source, acknowledged, acknowledged_by, acknowledged_at,
	resolved, resolved_by, resolved_at, created_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var (
		e                          models.Event
		deviceID, linkID, portID   *string
		details                    []byte
	)

	err := row.Scan(&e.ID, &e.EventType, &e.Severity, &deviceID, &linkID,
		&portID, &e.Message, &details, &e.Source, &e.Acknowledged,
		&e.AcknowledgedBy, &e.AcknowledgedAt, &e.Resolved, &e.ResolvedBy,
		&e.ResolvedAt, &e.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}

	if deviceID != nil {
		e.DeviceID = *deviceID
	}

	if linkID != nil {
		e.LinkID = *linkID
	}

	if portID != nil {
		e.PortID = *portID
	}

	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("failed to decode event details: %w", err)
		}
	}

	return &e, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

// CreateEvents appends event records in one batch round trip.
func (db *DB) CreateEvents(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for _, e := range events {
		if e == nil {
			continue
		}

		if e.ID == "" {
			e.ID = uuid.NewString()
		}

		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}

		var details []byte

		if e.Details != nil {
			encoded, err := json.Marshal(e.Details)
			if err != nil {
				return fmt.Errorf("failed to marshal event details: %w", err)
			}

			details = encoded
		}

		batch.Queue(
			`INSERT INTO events (id, event_type, severity, device_id, link_id,
				port_id, message, details, source, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			e.ID, e.EventType, e.Severity, nullable(e.DeviceID),
			nullable(e.LinkID), nullable(e.PortID), e.Message, details,
			e.Source, e.CreatedAt)
	}

	br := db.pool.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert events: %w", translateError(err))
	}

	return nil
}

// GetEvent fetches an event by id.
func (db *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)

	return scanEvent(row)
}

// ListEvents returns a filtered, paginated event listing, newest first.
func (db *DB) ListEvents(
	ctx context.Context, filter EventFilter, page models.Page,
) (*models.PagedResult[models.Event], error) {
	var (
		clauses []string
		args    []interface{}
	)

	if filter.Severity != "" {
		args = append(args, filter.Severity)
		clauses = append(clauses, fmt.Sprintf("severity = $%d", len(args)))
	}

	if filter.Type != "" {
		args = append(args, filter.Type)
		clauses = append(clauses, fmt.Sprintf("event_type = $%d", len(args)))
	}

	if filter.Acknowledged != nil {
		args = append(args, *filter.Acknowledged)
		clauses = append(clauses, fmt.Sprintf("acknowledged = $%d", len(args)))
	}

	if filter.DeviceID != "" {
		args = append(args, filter.DeviceID)
		clauses = append(clauses, fmt.Sprintf("device_id = $%d", len(args)))
	}

	if filter.LinkID != "" {
		args = append(args, filter.LinkID)
		clauses = append(clauses, fmt.Sprintf("link_id = $%d", len(args)))
	}

	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := db.pool.QueryRow(ctx,
		`SELECT count(*) FROM events`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	args = append(args, page.Limit(), page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM events%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		eventColumns, where, len(args)-1, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	items := make([]models.Event, 0, page.Limit())

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}

		items = append(items, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event row iteration failed: %w", err)
	}

	return &models.PagedResult[models.Event]{
		Items:    items,
		Total:    total,
		Page:     page.Number,
		PageSize: page.Size,
	}, nil
}

// AcknowledgeEvent records who acknowledged the event and when, and returns
// the updated row.
func (db *DB) AcknowledgeEvent(ctx context.Context, id, acknowledgedBy string) (*models.Event, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE events SET acknowledged=TRUE, acknowledged_by=$2, acknowledged_at=now()
		WHERE id = $1
		RETURNING `+eventColumns,
		id, acknowledgedBy)

	return scanEvent(row)
}

// ResolveEvent records who resolved the event and when, and returns the
// updated row.
func (db *DB) ResolveEvent(ctx context.Context, id, resolvedBy string) (*models.Event, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE events SET resolved=TRUE, resolved_by=$2, resolved_at=now()
		WHERE id = $1
		RETURNING `+eventColumns,
		id, resolvedBy)

	return scanEvent(row)
}
