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
	"sync"

	"github.com/uptrace/bun"
)

var (
	globalMu      sync.RWMutex
	globalFactory *BaseDatabaseFactory
	globalConfig  *Config

	// DB is the process-wide connection. It is set by InitDB and may be
	// assigned directly when the connection is opened elsewhere.
	DB *bun.DB
)

// GetDB returns the global Bun database instance.
func GetDB() *bun.DB {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory != nil {
		if db := globalFactory.GetDB(); db != nil {
			return db
		}
	}
	return DB
}

// GetDatabaseManager returns the global database manager.
func GetDatabaseManager() AbstractDatabaseManager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory != nil {
		return globalFactory.GetManager()
	}
	return nil
}

func GetDatabaseFactory() *BaseDatabaseFactory {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalFactory
}

// GetConfig returns the configuration passed to InitDB, or DefaultConfig.
func GetConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalConfig != nil {
		return globalConfig
	}
	return DefaultConfig()
}

// InitDB initializes the global database using the provided configuration.
func InitDB(cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, ErrEmptyConfig
	}
	return InitDatabaseWithOptions(cfg, cfg.DataMigrateConfig.EnableMigrateOnStartup)
}

// InitDatabaseWithOptions initializes the database and optionally runs
// migrations. When DataInitConfig.AutoInitOnStartup is set the SQL seed files
// are executed afterwards.
func InitDatabaseWithOptions(cfg *Config, runMigrations bool) (*bun.DB, error) {
	if cfg == nil {
		return nil, ErrEmptyConfig
	}
	ctx := context.Background()

	factory := NewDatabaseFactory()
	manager, err := factory.CreateFromConfig(&cfg.ConnectionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	globalMu.Lock()
	globalConfig = cfg
	globalFactory = factory
	globalMu.Unlock()

	if err := factory.InitializeDatabase(ctx, runMigrations); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db := manager.GetDB()
	globalMu.Lock()
	DB = db
	globalMu.Unlock()

	if cfg.DataInitConfig.AutoInitOnStartup {
		if err := manager.InitData(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize data: %w", err)
		}
	}
	return db, nil
}

// CloseDB closes the global database connection.
func CloseDB() error {
	if f := GetDatabaseFactory(); f != nil {
		err := f.Close()
		globalMu.Lock()
		DB = nil
		globalMu.Unlock()
		return err
	}
	return nil
}

// GetHealthStatus returns the current database health status.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	if f := GetDatabaseFactory(); f != nil {
		return f.GetHealthStatus(ctx)
	}
	return &HealthStatus{LastError: ErrNotConnected.Error()}
}

func GetDatabaseStats() *DBStats {
	if f := GetDatabaseFactory(); f != nil {
		return f.GetStats()
	}
	return &DBStats{}
}

// RunMigrations executes the migrations on the global connection.
func RunMigrations(ctx context.Context) error {
	manager := GetDatabaseManager()
	if manager == nil {
		return ErrNotConnected
	}
	return manager.RunMigrations(ctx)
}

// InitData seeds the global connection using the configured environment,
// falling back to "prod".
func InitData(ctx context.Context) error {
	env := GetConfig().DataInitConfig.Environment
	if env == "" {
		env = "prod"
	}
	_, err := InitDataWithSQL(ctx, env)
	return err
}

// InitDataWithSQL executes the seed files for environment on the global
// connection and returns the total number of rows affected.
func InitDataWithSQL(ctx context.Context, environment string) (int64, error) {
	db := GetDB()
	if db == nil {
		return 0, ErrNotConnected
	}

	root := GetConfig().DataInitConfig.Filepath
	if root == "" {
		root = defaultSQLRoot
	}

	m := NewSQLInitManager(db, environment)
	m.SetSQLRootPath(root)
	results, err := m.ExecuteInitialization(ctx)
	var total int64
	for _, r := range results {
		total += r.RowsAffected
	}
	return total, err
}
