/*
 * Copyright 2025 tomoncle.
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

// Package config loads the findagent configuration from a YAML file, an
// optional .env file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tomoncle/findagent/database"
	"github.com/tomoncle/findagent/types"
	"github.com/tomoncle/findagent/utils"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "configs/config.yaml"
	DefaultEnvFile    = ".env"

	EnvAppEnv          = "APP_ENV"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "CONSOLE_LOG_FORMAT"
	EnvDefaultPageSize = "PAGINATION_DEFAULT_PAGE_SIZE"
	EnvMaxPageSize     = "PAGINATION_MAX_PAGE_SIZE"
)

var environments = []string{"dev", "test", "prod"}

// Config is the root application configuration.
type Config struct {
	App        AppConfig        `yaml:"app"`
	Log        LogConfig        `yaml:"log"`
	Pagination PaginationConfig `yaml:"pagination"`
	Database   database.Config  `yaml:"database"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

type LogConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"` // text or json
	FileEnabled    bool   `yaml:"file_enabled"`
	FileDir        string `yaml:"file_dir"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

type PaginationConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// Normalize clamps p with the configured page sizes.
func (c PaginationConfig) Normalize(p *types.Pager) {
	p.Normalize(c.DefaultPageSize, c.MaxPageSize)
}

// Default returns the configuration used when no file is present. The seed
// environment follows App.Environment unless set explicitly.
func Default() *Config {
	db := database.DefaultConfig()
	db.DataInitConfig.Environment = ""
	return &Config{
		App: AppConfig{Name: "findagent", Environment: "dev"},
		Log: LogConfig{Level: "info", Format: "text", FileDir: "logs", FileMaxAgeDays: 7},
		Pagination: PaginationConfig{
			DefaultPageSize: types.DefaultPageSize,
			MaxPageSize:     types.MaxPageSize,
		},
		Database: *db,
	}
}

// Load reads .env and the YAML file at path over Default, then applies
// environment overrides and validates. Missing files are not an error; an
// empty path means DefaultConfigFile.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DefaultEnvFile, err)
	}
	if path == "" {
		path = DefaultConfigFile
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize applies environment overrides, fills zero values and validates.
func (c *Config) Finalize() error {
	c.loadEnv()
	c.loadDefaults()
	return c.validate()
}

func (c *Config) loadEnv() {
	c.App.Environment = utils.EnvDefaultString(EnvAppEnv, c.App.Environment)
	c.Log.Level = utils.EnvDefaultString(EnvLogLevel, c.Log.Level)
	c.Log.Format = utils.EnvDefaultString(EnvLogFormat, c.Log.Format)
	c.Log.FileEnabled = utils.EnvDefaultBool("FILE_LOG_ENABLED", c.Log.FileEnabled)
	c.Log.FileDir = utils.EnvDefaultString("FILE_LOG_DIR", c.Log.FileDir)
	c.Log.FileMaxAgeDays = utils.EnvDefaultInt("FILE_LOG_MAX_AGE_DAYS", c.Log.FileMaxAgeDays)
	c.Pagination.DefaultPageSize = utils.EnvDefaultInt(EnvDefaultPageSize, c.Pagination.DefaultPageSize)
	c.Pagination.MaxPageSize = utils.EnvDefaultInt(EnvMaxPageSize, c.Pagination.MaxPageSize)
}

func (c *Config) loadDefaults() {
	d := Default()
	if c.App.Name == "" {
		c.App.Name = d.App.Name
	}
	if c.App.Environment == "" {
		c.App.Environment = d.App.Environment
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Pagination.DefaultPageSize == 0 {
		c.Pagination.DefaultPageSize = d.Pagination.DefaultPageSize
	}
	if c.Pagination.MaxPageSize == 0 {
		c.Pagination.MaxPageSize = d.Pagination.MaxPageSize
	}
	if c.Database.ConnectionConfig.Type == "" {
		c.Database.ConnectionConfig.Type = database.TypeSQLite
	}
	if c.Database.DataInitConfig.Environment == "" {
		c.Database.DataInitConfig.Environment = c.App.Environment
	}
}

func (c *Config) validate() error {
	var errs []error
	if !contains(environments, c.App.Environment) {
		errs = append(errs, fmt.Errorf("app.environment %q is not one of %s", c.App.Environment, strings.Join(environments, ", ")))
	}
	if c.Pagination.DefaultPageSize < 1 {
		errs = append(errs, fmt.Errorf("pagination.default_page_size must be positive, got %d", c.Pagination.DefaultPageSize))
	}
	if c.Pagination.MaxPageSize < c.Pagination.DefaultPageSize {
		errs = append(errs, fmt.Errorf("pagination.max_page_size %d is below default_page_size %d",
			c.Pagination.MaxPageSize, c.Pagination.DefaultPageSize))
	}
	switch database.NormalizeType(c.Database.ConnectionConfig.Type) {
	case database.TypeMySQL, database.TypePostgres, database.TypeSQLite:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", database.ErrUnsupportedType, c.Database.ConnectionConfig.Type))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ConfigLoader returns the database section.
func (c *Config) ConfigLoader() *database.Config {
	return &c.Database
}

var _ database.AbstractDatabaseConfigProvider = (*Config)(nil)

// ApplyLogging configures the utils logger registry from c.Log.
func (c *Config) ApplyLogging() {
	utils.ConfigureConsoleLogFormat(c.Log.Format)
	utils.ConfigureFileLog(c.Log.FileEnabled, c.Log.FileDir, c.Log.FileMaxAgeDays)
	utils.ConfigureLogLevel(c.Log.Level)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
