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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, TypePostgres, NormalizeType("postgresql"))
	assert.Equal(t, TypePostgres, NormalizeType(" Postgres "))
	assert.Equal(t, TypeSQLite, NormalizeType("sqlite3"))
	assert.Equal(t, TypeMySQL, NormalizeType("MySQL"))
	assert.Equal(t, "oracle", NormalizeType("Oracle"))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?cache=shared", SQLiteDSN(""))
	assert.Equal(t, "file::memory:?cache=shared", SQLiteDSN(":memory:"))
	assert.Equal(t, "file:x?mode=memory", SQLiteDSN("file:x?mode=memory"))
	assert.Equal(t, "findagent.db", SQLiteDSN("findagent"))
	assert.Equal(t, "data/app.sqlite", SQLiteDSN("data/app.sqlite"))
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "postgresql")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")

	cfg := DefaultConnectionConfig()
	open := cfg.MaxOpenConns
	OverrideFromEnv(cfg)

	assert.Equal(t, "postgresql", cfg.Type)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, open, cfg.MaxOpenConns)
	assert.Equal(t, 90*time.Second, cfg.ConnMaxLifetime)
	assert.True(t, cfg.EnableQueryLog)
}

func TestCreateFromConfigRejectsUnknownType(t *testing.T) {
	f := NewDatabaseFactory()
	_, err := f.CreateFromConfig(&ConnectionConfig{Type: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = f.CreateFromConfig(nil)
	assert.ErrorIs(t, err, ErrEmptyConfig)
}

func TestFactoryWithoutManager(t *testing.T) {
	f := NewDatabaseFactory()
	assert.Nil(t, f.GetDB())
	assert.NoError(t, f.Close())
	assert.False(t, f.GetHealthStatus(context.Background()).Healthy)
	assert.Equal(t, &DBStats{}, f.GetStats())
	assert.Error(t, f.InitializeDatabase(context.Background(), false))
}

func TestManagerSQLiteMemory(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite3"
	cfg.DBName = ":memory:"
	cfg.HealthCheckInterval = 0

	f := NewDatabaseFactory()
	f.SetLogger(NopLogger())
	m, err := f.CreateFromConfig(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.InitializeDatabase(ctx, false))
	t.Cleanup(func() { _ = f.Close() })

	require.NoError(t, m.Ping(ctx))
	status := m.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, m.GetStats().MaxOpenConns)

	require.NoError(t, m.Disconnect())
	assert.Nil(t, m.GetDB())
	assert.ErrorIs(t, m.Ping(ctx), ErrNotConnected)
	assert.False(t, m.HealthCheck(ctx).Healthy)
}
