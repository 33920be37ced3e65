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
)

// Deleting a device cascades to its ports, links, and events.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		device_type     TEXT NOT NULL DEFAULT 'UNKNOWN',
		ip              TEXT NOT NULL UNIQUE,
		mac             TEXT NOT NULL DEFAULT '',
		hostname        TEXT NOT NULL DEFAULT '',
		location        TEXT NOT NULL DEFAULT '',
		snmp_community  TEXT NOT NULL DEFAULT '',
		is_monitored    BOOLEAN NOT NULL DEFAULT TRUE,
		status          TEXT NOT NULL DEFAULT 'UNKNOWN',
		last_seen       TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ports (
		id          TEXT PRIMARY KEY,
		device_id   TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		number      INTEGER NOT NULL DEFAULT 0,
		port_type   TEXT NOT NULL DEFAULT 'UNKNOWN',
		status      TEXT NOT NULL DEFAULT 'UNKNOWN',
		speed_mbps  BIGINT NOT NULL DEFAULT 0,
		rx_bytes    BIGINT NOT NULL DEFAULT 0,
		tx_bytes    BIGINT NOT NULL DEFAULT 0,
		rx_errors   BIGINT NOT NULL DEFAULT 0,
		tx_errors   BIGINT NOT NULL DEFAULT 0,
		last_polled TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS links (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL DEFAULT '',
		source_device_id    TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		target_device_id    TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		source_port_id      TEXT NOT NULL DEFAULT '',
		target_port_id      TEXT NOT NULL DEFAULT '',
		link_type           TEXT NOT NULL DEFAULT 'PHYSICAL',
		status              TEXT NOT NULL DEFAULT 'UNKNOWN',
		cable_type          TEXT NOT NULL DEFAULT 'UNKNOWN',
		length_meters       DOUBLE PRECISION NOT NULL DEFAULT 0,
		speed_mbps          BIGINT NOT NULL DEFAULT 0,
		latency_ms          DOUBLE PRECISION NOT NULL DEFAULT 0,
		packet_loss_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
		jitter_ms           DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_checked        TIMESTAMPTZ,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id              TEXT PRIMARY KEY,
		event_type      TEXT NOT NULL,
		severity        TEXT NOT NULL,
		device_id       TEXT REFERENCES devices(id) ON DELETE CASCADE,
		link_id         TEXT REFERENCES links(id) ON DELETE CASCADE,
		port_id         TEXT REFERENCES ports(id) ON DELETE CASCADE,
		message         TEXT NOT NULL,
		details         JSONB,
		source          TEXT NOT NULL DEFAULT '',
		acknowledged    BOOLEAN NOT NULL DEFAULT FALSE,
		acknowledged_by TEXT NOT NULL DEFAULT '',
		acknowledged_at TIMESTAMPTZ,
		resolved        BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_by     TEXT NOT NULL DEFAULT '',
		resolved_at     TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_events_severity ON events (severity)`,
	`CREATE TABLE IF NOT EXISTS cable_health_metrics (
		id                  TEXT PRIMARY KEY,
		link_id             TEXT NOT NULL REFERENCES links(id) ON DELETE CASCADE,
		latency_min_ms      DOUBLE PRECISION NOT NULL DEFAULT 0,
		latency_avg_ms      DOUBLE PRECISION NOT NULL DEFAULT 0,
		latency_max_ms      DOUBLE PRECISION NOT NULL DEFAULT 0,
		packet_loss_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
		jitter_ms           DOUBLE PRECISION NOT NULL DEFAULT 0,
		health_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
		status              TEXT NOT NULL DEFAULT 'UNKNOWN',
		measured_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cable_health_link ON cable_health_metrics (link_id, measured_at DESC)`,
}

// Migrate bootstraps the schema. Statements are idempotent so the server can
// run it unconditionally at startup.
func (db *DB) Migrate(ctx context.Context) error {
	if db.pool == nil {
		return ErrDatabaseNotInitialized
	}

	for i, stmt := range migrations {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	db.logger.Info().Int("statements", len(migrations)).Msg("schema migration complete")

	return nil
}
