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

// Package config loads service configuration from JSON files with optional
// environment overrides.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
)

// ConfigLoader populates a config struct from some source.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// fileLoader reads a JSON config document from disk.
type fileLoader struct{}

func (fileLoader) Load(_ context.Context, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return nil
}

// Validator is implemented by config structs that can check themselves.
type Validator interface {
	Validate() error
}

// EnvOverride maps an environment variable onto a config field setter.
// Overrides run after the file loader so operators can adjust a deployed
// config without editing it.
type EnvOverride struct {
	Name  string
	Apply func(value string)
}

// Config holds the configuration loading dependencies.
type Config struct {
	loader    ConfigLoader
	overrides []EnvOverride
	logger    logger.Logger
}

// NewConfig initializes a Config with the default file loader.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Config{
		loader: fileLoader{},
		logger: log,
	}
}

// WithOverrides registers environment overrides applied after loading.
func (c *Config) WithOverrides(overrides ...EnvOverride) *Config {
	c.overrides = append(c.overrides, overrides...)
	return c
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// LoadAndValidate loads a configuration, applies environment overrides, and
// validates it.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	if err := c.loader.Load(ctx, path, cfg); err != nil {
		return err
	}

	for _, o := range c.overrides {
		if value := os.Getenv(o.Name); value != "" {
			o.Apply(value)
			c.logger.Debug().Str("var", o.Name).Msg("applied environment override")
		}
	}

	return ValidateConfig(cfg)
}
