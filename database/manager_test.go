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

package database

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func TestResolveDriver(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.Host, cfg.Port, cfg.DBName = "db", 3306, "findagent"
	cfg.Username, cfg.Password = "app", "secret"

	cfg.Type = "mariadb"
	spec, err := resolveDriver(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mysql", spec.driver)
	assert.Contains(t, spec.dsn, "app:secret@tcp(db:3306)/findagent?")
	assert.Contains(t, spec.dsn, "charset=utf8mb4")
	assert.Contains(t, spec.dsn, "parseTime=true")
	assert.Equal(t, dialect.MySQL, spec.dialect().Name())

	cfg.Type = "sqlite"
	spec, err = resolveDriver(cfg)
	require.NoError(t, err)
	assert.Equal(t, sqliteshim.ShimName, spec.driver)
	assert.Equal(t, "findagent.db", spec.dsn)
	assert.Equal(t, dialect.SQLite, spec.dialect().Name())

	cfg.Type = "oracle"
	_, err = resolveDriver(cfg)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestPostgresDSNEscapesCredentials(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.Type = "pg"
	cfg.Host, cfg.Port, cfg.DBName = "db", 5432, "findagent"
	cfg.Username, cfg.Password = "app", "p@ss/word"

	spec, err := resolveDriver(cfg)
	require.NoError(t, err)
	assert.Equal(t, "postgres", spec.driver)
	assert.Equal(t, dialect.PG, spec.dialect().Name())

	u, err := url.Parse(spec.dsn)
	require.NoError(t, err)
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss/word", pass)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/findagent", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "10", u.Query().Get("connect_timeout"))
}

func TestReopenSwapsHandle(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.DBName = filepath.Join(t.TempDir(), "reopen.db")
	cfg.HealthCheckInterval = 0

	m := NewDatabaseManager(cfg).(*defaultDatabaseManager)
	m.SetLogger(nil)
	ctx := context.Background()
	require.NoError(t, m.Connect(ctx))
	t.Cleanup(func() { _ = m.Disconnect() })

	before := m.GetDB()
	_, err := before.ExecContext(ctx, "CREATE TABLE probe (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	require.NoError(t, m.reopen(ctx))
	after := m.GetDB()
	assert.NotSame(t, before, after)
	assert.Error(t, before.PingContext(ctx))

	var n int
	require.NoError(t, after.NewSelect().TableExpr("probe").ColumnExpr("COUNT(*)").Scan(ctx, &n))
	assert.Zero(t, n)
	assert.True(t, m.HealthCheck(ctx).Healthy)
}

func TestReopenAfterCancel(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.DBName = filepath.Join(t.TempDir(), "cancel.db")
	cfg.HealthCheckInterval = 0

	m := NewDatabaseManager(cfg).(*defaultDatabaseManager)
	m.SetLogger(nil)
	require.NoError(t, m.Connect(context.Background()))
	t.Cleanup(func() { _ = m.Disconnect() })
	before := m.GetDB()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, m.reopen(ctx))
	assert.Same(t, before, m.GetDB())
}
