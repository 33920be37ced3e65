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

// Package db implements the PostgreSQL-backed registry for devices, ports,
// links, events, and cable-health metrics.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// DB implements Store on top of a pgx connection pool.
type DB struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

var _ Store = (*DB)(nil)

// New dials the configured database and returns a ready Store.
func New(ctx context.Context, cfg *models.Database, log logger.Logger) (*DB, error) {
	pool, err := NewPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &DB{pool: pool, logger: log}, nil
}

// Ping verifies database connectivity.
func (db *DB) Ping(ctx context.Context) error {
	if db.pool == nil {
		return ErrDatabaseNotInitialized
	}

	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// Close releases the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
