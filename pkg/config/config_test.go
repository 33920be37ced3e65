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

package config

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfigFile(t, `{
		"listen_addr": ":8090",
		"database": {"host": "db.local", "port": 5432, "database": "netmon"},
		"monitoring": {"interval": "30s", "failure_threshold": 2}
	}`)

	var cfg models.CoreServiceConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg)
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.ListenAddr)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, 2, cfg.Monitoring.FailureThreshold)
	// Defaults filled during validation.
	assert.Equal(t, 32, cfg.Monitoring.Concurrency)
}

func TestLoadAndValidateMissingFile(t *testing.T) {
	var cfg models.CoreServiceConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), "/nonexistent/server.json", &cfg)
	require.Error(t, err)
	// The underlying cause stays unwrappable for callers.
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadAndValidateBadJSON(t *testing.T) {
	path := writeConfigFile(t, `{"listen_addr": `)

	var cfg models.CoreServiceConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadAndValidateRejectsInvalidConfig(t *testing.T) {
	// Valid JSON, but no listen_addr.
	path := writeConfigFile(t, `{"database": {"host": "db.local"}}`)

	var cfg models.CoreServiceConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
	assert.Error(t, err)
}

func TestEnvOverridesApplyAfterLoad(t *testing.T) {
	path := writeConfigFile(t, `{
		"listen_addr": ":8090",
		"database": {"host": "db.local"}
	}`)

	t.Setenv("NETMON_TEST_LISTEN_ADDR", ":9000")
	t.Setenv("NETMON_TEST_DB_HOST", "")

	var cfg models.CoreServiceConfig

	loader := NewConfig(logger.NewTestLogger()).WithOverrides(
		EnvOverride{Name: "NETMON_TEST_LISTEN_ADDR", Apply: func(v string) { cfg.ListenAddr = v }},
		EnvOverride{Name: "NETMON_TEST_DB_HOST", Apply: func(v string) { cfg.Database.Host = v }},
	)

	require.NoError(t, loader.LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, ":9000", cfg.ListenAddr)
	// Empty variables are ignored, the file value stands.
	assert.Equal(t, "db.local", cfg.Database.Host)
}

type plainConfig struct {
	Name string `json:"name"`
}

func TestValidateConfigSkipsNonValidators(t *testing.T) {
	assert.NoError(t, ValidateConfig(&plainConfig{Name: "x"}))
}
