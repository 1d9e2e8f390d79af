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
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// Migration versions.
const (
	MigrationCreateBaseTables = "001"
	MigrationAddForeignKeys   = "002"
	MigrationSeedInitialData  = "003"
)

// MigrationManager applies versioned migrations once each and records them in
// the migrations table.
type MigrationManager struct {
	db     *bun.DB
	logger Logger
	config *Config
}

// Migration represents an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:migrations,alias:m"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name,notnull"`
	AppliedAt   time.Time `bun:"applied_at,notnull"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

// NewMigrationManager returns a manager for db. A nil cfg falls back to the
// configuration given to InitDB, then to DefaultConfig.
func NewMigrationManager(db *bun.DB, logger Logger, cfg *Config) *MigrationManager {
	if cfg == nil {
		cfg = GetConfig()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &MigrationManager{db: db, logger: logger, config: cfg}
}

// RunMigrations applies every pending migration.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	_, err := mm.Migrate(ctx)
	return err
}

// Migrate creates the migrations table if needed, then applies the pending
// migrations in ascending version order, each in its own transaction. It
// returns the records written by this call.
func (mm *MigrationManager) Migrate(ctx context.Context) ([]Migration, error) {
	if mm.db == nil {
		return nil, ErrNotConnected
	}
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}

	_, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	pending, err := mm.Pending(ctx)
	if err != nil {
		return nil, err
	}
	applied := make([]Migration, 0, len(pending))
	for _, item := range pending {
		record, err := mm.apply(ctx, item)
		if err != nil {
			return applied, fmt.Errorf("failed to execute migration %s: %w", item.Version, err)
		}
		applied = append(applied, record)
	}

	mm.logger.Info("Database migrations completed", "applied", len(applied))
	return applied, nil
}

// Pending returns the enabled migrations that have no record yet.
func (mm *MigrationManager) Pending(ctx context.Context) ([]MigrationItem, error) {
	var versions []string
	err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Column("version").
		Scan(ctx, &versions)
	if err != nil {
		return nil, err
	}
	done := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		done[v] = struct{}{}
	}

	var pending []MigrationItem
	for _, item := range mm.plan() {
		if _, ok := done[item.Version]; ok {
			mm.logger.Debug("Migration already applied", "version", item.Version)
			continue
		}
		pending = append(pending, item)
	}
	return pending, nil
}

// plan lists the migrations the configuration enables, by version.
func (mm *MigrationManager) plan() []MigrationItem {
	all := []struct {
		item    MigrationItem
		enabled bool
	}{
		{MigrationItem{MigrationCreateBaseTables, "create_base_tables", "Create base table structure", mm.createBaseTables}, true},
		{MigrationItem{MigrationAddForeignKeys, "add_foreign_keys", "Add table foreign key constraints", mm.addForeignKeys},
			mm.config.DataMigrateConfig.EnableForeignKey},
		{MigrationItem{MigrationSeedInitialData, "seed_initial_data", "Seed initial data", mm.seedInitialData},
			mm.config.DataInitConfig.AutoInitOnMigration},
	}
	var items []MigrationItem
	for _, m := range all {
		if m.enabled {
			items = append(items, m.item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Version < items[j].Version })
	return items
}

func (mm *MigrationManager) apply(ctx context.Context, item MigrationItem) (Migration, error) {
	record := Migration{Version: item.Version, Name: item.Name, Description: item.Description}
	err := RunInUnitOfWork(ctx, mm.db, func(ctx context.Context, tx bun.Tx) error {
		if err := item.Up(ctx, tx); err != nil {
			return err
		}
		record.AppliedAt = time.Now()
		_, err := tx.NewInsert().Model(&record).Exec(ctx)
		return err
	})
	if err != nil {
		return Migration{}, err
	}
	mm.logger.Info("Migration executed successfully", "version", item.Version, "name", item.Name)
	return record, nil
}

func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	for _, model := range RegisteredModelInstances() {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

func (mm *MigrationManager) addForeignKeys(ctx context.Context, db bun.IDB) error {
	fkManager, err := NewForeignKeyManagerFromFile(mm.logger, mm.config.DataMigrateConfig.ForeignKeyFile)
	if err != nil {
		return err
	}
	if err := fkManager.ValidateConstraints(); err != nil {
		return fmt.Errorf("foreign key constraint validation failed: %w", err)
	}
	added, err := fkManager.AddAllForeignKeys(ctx, db)
	if err != nil {
		return err
	}
	mm.logger.Info("Foreign key constraints processed", "added", added, "total", len(fkManager.ListAllConstraints()))
	return nil
}

// InitData runs the SQL seed files outside the migration bookkeeping.
func (mm *MigrationManager) InitData(ctx context.Context) error {
	if mm.db == nil {
		return ErrNotConnected
	}
	return mm.seedInitialData(ctx, mm.db)
}

func (mm *MigrationManager) seedInitialData(ctx context.Context, db bun.IDB) error {
	seed := mm.config.DataInitConfig
	sqlManager := NewSQLInitManager(db, seed.Environment)
	sqlManager.SetLogger(mm.logger)
	if seed.Filepath != "" {
		sqlManager.SetSQLRootPath(seed.Filepath)
	}

	if _, err := sqlManager.ExecuteInitialization(ctx); err != nil {
		return fmt.Errorf("SQL file initialization failed: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}
