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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/findagent/database"
	"github.com/tomoncle/findagent/types"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.App.Environment)
	assert.Equal(t, 20, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
	assert.Equal(t, database.TypeSQLite, cfg.Database.ConnectionConfig.Type)
	assert.Equal(t, "dev", cfg.Database.DataInitConfig.Environment)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
app:
  environment: prod
log:
  level: debug
  format: json
pagination:
  default_page_size: 10
  max_page_size: 50
database:
  connection:
    type: postgresql
    host: db
    port: 5432
    dbname: findagent
    connect_timeout: 3s
  migrate:
    enable_migrate_on_startup: true
    enable_foreign_key: true
  init:
    auto_init_on_migration: true
    filepath: configs/sql
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.App.Environment)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Pagination.DefaultPageSize)

	db := cfg.ConfigLoader()
	assert.Equal(t, "postgresql", db.ConnectionConfig.Type)
	assert.Equal(t, 3*time.Second, db.ConnectionConfig.ConnectTimeout)
	assert.Equal(t, 100, db.ConnectionConfig.MaxOpenConns, "unset keys keep defaults")
	assert.True(t, db.DataMigrateConfig.EnableForeignKey)
	assert.Equal(t, "prod", db.DataInitConfig.Environment)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvAppEnv, "test")
	t.Setenv(EnvDefaultPageSize, "15")
	t.Setenv(EnvMaxPageSize, "30")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeFile(t, "pagination:\n  default_page_size: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.App.Environment)
	assert.Equal(t, 15, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 30, cfg.Pagination.MaxPageSize)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(writeFile(t, "app:\n  environment: qa\n"))
	assert.ErrorContains(t, err, "app.environment")

	_, err = Load(writeFile(t, "pagination:\n  default_page_size: 50\n  max_page_size: 10\n"))
	assert.ErrorContains(t, err, "max_page_size")

	_, err = Load(writeFile(t, "database:\n  connection:\n    type: oracle\n"))
	assert.ErrorIs(t, err, database.ErrUnsupportedType)

	_, err = Load(writeFile(t, "app: [broken"))
	assert.ErrorContains(t, err, "parse config")
}

func TestPaginationNormalize(t *testing.T) {
	c := PaginationConfig{DefaultPageSize: 20, MaxPageSize: 100}
	p := types.NewPager(0, 500)
	c.Normalize(&p)
	assert.Equal(t, 1, p.PageNum)
	assert.Equal(t, 100, p.PageSize)
}
