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
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// NewPool dials the configured PostgreSQL cluster and returns a pgx pool.
func NewPool(ctx context.Context, cfg *models.Database, log logger.Logger) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, ErrDatabaseNotInitialized
	}

	database := *cfg
	if database.Port == 0 {
		database.Port = 5432
	}

	connURL := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", database.Host, database.Port),
		Path:   "/" + database.Database,
	}

	if database.Username != "" {
		if database.Password != "" {
			connURL.User = url.UserPassword(database.Username, database.Password)
		} else {
			connURL.User = url.User(database.Username)
		}
	}

	query := connURL.Query()

	sslMode := database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	query.Set("sslmode", sslMode)

	if database.ApplicationName != "" {
		query.Set("application_name", database.ApplicationName)
	}

	connURL.RawQuery = query.Encode()

	poolConfig, err := pgxpool.ParseConfig(connURL.String())
	if err != nil {
		return nil, fmt.Errorf("db: failed to parse connection string: %w", err)
	}

	if database.MaxConnections > 0 {
		poolConfig.MaxConns = database.MaxConnections
	}

	if database.MinConnections > 0 {
		poolConfig.MinConns = database.MinConnections
	}

	if database.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(database.MaxConnLifetime)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("db: failed to initialize pool: %w", err)
	}

	if log != nil {
		log.Info().
			Str("host", database.Host).
			Int("port", database.Port).
			Int32("max_conns", poolConfig.MaxConns).
			Msg("connected to PostgreSQL")
	}

	return pool, nil
}
