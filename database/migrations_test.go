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

package database_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/findagent/database"
	"github.com/tomoncle/findagent/internal/testdb"
	"github.com/tomoncle/findagent/models"
)

func migrationConfig(t *testing.T) *database.Config {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "common")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_llm.sql"), []byte(`
INSERT INTO llm (provider, model_name, model_type, api_key, api_url, status)
VALUES ('openai', 'gpt-4o', '1', 'sk-test', 'https://api.openai.com/v1', 1);
`), 0o644))

	cfg := database.DefaultConfig()
	cfg.DataMigrateConfig.EnableForeignKey = true
	cfg.DataInitConfig.AutoInitOnMigration = true
	cfg.DataInitConfig.Filepath = root
	return cfg
}

func TestRunMigrations(t *testing.T) {
	db := testdb.New(t)
	cfg := migrationConfig(t)
	mm := database.NewMigrationManager(db, database.NopLogger(), cfg)

	ctx := context.Background()
	require.NoError(t, mm.RunMigrations(ctx))

	applied, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 3)
	assert.Equal(t, database.MigrationCreateBaseTables, applied[0].Version)
	assert.Equal(t, database.MigrationAddForeignKeys, applied[1].Version)
	assert.Equal(t, database.MigrationSeedInitialData, applied[2].Version)

	for _, model := range []interface{}{(*models.LLM)(nil), (*models.Tool)(nil), (*models.Agent)(nil)} {
		_, err := db.NewSelect().Model(model).Count(ctx)
		assert.NoError(t, err, "%T table", model)
	}

	// a second run applies nothing and does not reseed
	require.NoError(t, mm.RunMigrations(ctx))
	n, err := db.NewSelect().Model((*models.LLM)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunMigrationsOptionalSteps(t *testing.T) {
	db := testdb.New(t)
	cfg := database.DefaultConfig()
	mm := database.NewMigrationManager(db, nil, cfg)

	ctx := context.Background()
	require.NoError(t, mm.RunMigrations(ctx))

	applied, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "create_base_tables", applied[0].Name)
}

func TestInitDataOutsideMigrations(t *testing.T) {
	db := testdb.New(t, (*models.LLM)(nil))
	cfg := migrationConfig(t)
	mm := database.NewMigrationManager(db, nil, cfg)

	ctx := context.Background()
	require.NoError(t, mm.InitData(ctx))

	var llm models.LLM
	require.NoError(t, db.NewSelect().Model(&llm).Limit(1).Scan(ctx))
	assert.Equal(t, "gpt-4o", llm.ModelName)
	assert.False(t, llm.CreatedAt.IsZero(), "column default fills created_at")
}

func TestMigrationManagerWithoutDB(t *testing.T) {
	mm := database.NewMigrationManager(nil, nil, nil)
	assert.ErrorIs(t, mm.RunMigrations(context.Background()), database.ErrNotConnected)
	assert.ErrorIs(t, mm.InitData(context.Background()), database.ErrNotConnected)
}

func TestPendingFollowsConfig(t *testing.T) {
	db := testdb.New(t)
	cfg := database.DefaultConfig()
	ctx := context.Background()

	applied, err := database.NewMigrationManager(db, nil, cfg).Migrate(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.False(t, applied[0].AppliedAt.IsZero())

	cfg.DataMigrateConfig.EnableForeignKey = true
	mm := database.NewMigrationManager(db, nil, cfg)
	pending, err := mm.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, database.MigrationAddForeignKeys, pending[0].Version)

	applied, err = mm.Migrate(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "add_foreign_keys", applied[0].Name)

	pending, err = mm.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
