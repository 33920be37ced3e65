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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
)

var (
	errNoListenAddr   = errors.New("listen_addr is required")
	errNoDatabaseHost = errors.New("database.host is required")
	errBadThreshold   = errors.New("monitoring.failure_threshold must be >= 1")
	errBadDuration    = errors.New("invalid duration")
)

// Duration wraps time.Duration so JSON configs can use "30s"/"5m" strings.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		*d = Duration(time.Duration(v))
		return nil
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %q", errBadDuration, v)
		}

		*d = Duration(parsed)

		return nil
	default:
		return fmt.Errorf("%w: %v", errBadDuration, raw)
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host            string   `json:"host"`
	Port            int      `json:"port"`
	Database        string   `json:"database"`
	Username        string   `json:"username"`
	Password        string   `json:"password"`
	SSLMode         string   `json:"ssl_mode,omitempty"`
	MaxConnections  int32    `json:"max_connections,omitempty"`
	MinConnections  int32    `json:"min_connections,omitempty"`
	MaxConnLifetime Duration `json:"max_conn_lifetime,omitempty"`
	ApplicationName string   `json:"application_name,omitempty"`
}

// MonitoringConfig tunes the monitor cycle.
type MonitoringConfig struct {
	Interval         Duration `json:"interval"`
	ProbeTimeout     Duration `json:"probe_timeout"`
	PingCount        int      `json:"ping_count"`
	LinkPingCount    int      `json:"link_ping_count"`
	FailureThreshold int      `json:"failure_threshold"`
	Concurrency      int      `json:"concurrency"`
	RetryMaxAttempts int      `json:"retry_max_attempts"`
	RetryInitialWait Duration `json:"retry_initial_wait"`
}

// Defaults fills zero values with production defaults.
func (m *MonitoringConfig) Defaults() {
	if m.Interval == 0 {
		m.Interval = Duration(60 * time.Second)
	}

	if m.ProbeTimeout == 0 {
		m.ProbeTimeout = Duration(2 * time.Second)
	}

	if m.PingCount == 0 {
		m.PingCount = 3
	}

	if m.LinkPingCount == 0 {
		m.LinkPingCount = 10
	}

	if m.FailureThreshold == 0 {
		m.FailureThreshold = 3
	}

	if m.Concurrency == 0 {
		m.Concurrency = 32
	}

	if m.RetryMaxAttempts == 0 {
		m.RetryMaxAttempts = 2
	}

	if m.RetryInitialWait == 0 {
		m.RetryInitialWait = Duration(200 * time.Millisecond)
	}
}

// SNMPConfig tunes the port statistics collector.
type SNMPConfig struct {
	Enabled  bool     `json:"enabled"`
	Port     uint16   `json:"port,omitempty"`
	Timeout  Duration `json:"timeout,omitempty"`
	Retries  int      `json:"retries,omitempty"`
	Interval Duration `json:"interval,omitempty"`
}

// DiscoveryConfig bounds network scans.
type DiscoveryConfig struct {
	MaxHosts    int      `json:"max_hosts,omitempty"`
	Timeout     Duration `json:"timeout,omitempty"`
	Concurrency int      `json:"concurrency,omitempty"`
}

// CORSConfig controls cross-origin access for REST and WebSocket clients.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// CoreServiceConfig is the top-level server configuration.
type CoreServiceConfig struct {
	ListenAddr string           `json:"listen_addr"`
	APIKey     string           `json:"api_key,omitempty"`
	Database   Database         `json:"database"`
	Monitoring MonitoringConfig `json:"monitoring"`
	SNMP       SNMPConfig       `json:"snmp"`
	Discovery  DiscoveryConfig  `json:"discovery"`
	CORS       CORSConfig       `json:"cors"`
	Logging    logger.Config    `json:"logging"`
}

// Validate implements config.Validator.
func (c *CoreServiceConfig) Validate() error {
	if c.ListenAddr == "" {
		return errNoListenAddr
	}

	if c.Database.Host == "" {
		return errNoDatabaseHost
	}

	c.Monitoring.Defaults()

	if c.Monitoring.FailureThreshold < 1 {
		return errBadThreshold
	}

	return nil
}
