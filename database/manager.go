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
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

const (
	defaultConnectTimeout = 30 * time.Second
	pingTimeout           = 5 * time.Second
)

// driverSpec is what sql.Open and bun.NewDB need for one configured backend.
type driverSpec struct {
	driver  string
	dsn     string
	dialect func() schema.Dialect
}

// resolveDriver maps cfg onto a driver name, DSN and dialect.
func resolveDriver(cfg *ConnectionConfig) (driverSpec, error) {
	switch NormalizeType(cfg.Type) {
	case TypeMySQL:
		return driverSpec{
			driver:  "mysql",
			dsn:     mysqlDSN(cfg),
			dialect: func() schema.Dialect { return mysqldialect.New() },
		}, nil
	case TypePostgres:
		return driverSpec{
			driver:  "postgres",
			dsn:     postgresDSN(cfg),
			dialect: func() schema.Dialect { return pgdialect.New() },
		}, nil
	case TypeSQLite:
		return driverSpec{
			driver:  sqliteshim.ShimName,
			dsn:     SQLiteDSN(cfg.DBName),
			dialect: func() schema.Dialect { return sqlitedialect.New() },
		}, nil
	default:
		return driverSpec{}, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}
}

func mysqlDSN(cfg *ConnectionConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Timeout = cfg.ConnectTimeout
	mc.ReadTimeout = cfg.ReadTimeout
	mc.WriteTimeout = cfg.WriteTimeout
	charset := cfg.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	mc.Params = map[string]string{"charset": charset}
	return mc.FormatDSN()
}

func postgresDSN(cfg *ConnectionConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	if secs := int(cfg.ConnectTimeout.Seconds()); secs > 0 {
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// isSQLiteMemory reports whether cfg names a private in-memory sqlite database.
func isSQLiteMemory(cfg *ConnectionConfig) bool {
	return NormalizeType(cfg.Type) == TypeSQLite && (cfg.DBName == "" || cfg.DBName == sqliteMemory)
}

type defaultDatabaseManager struct {
	config *ConnectionConfig
	logger Logger
	mu     sync.RWMutex
	db     *bun.DB
	sqlDB  *sql.DB

	stopHealth     context.CancelFunc
	reconnectTries int
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by bun. A nil
// config uses DefaultConnectionConfig.
func NewDatabaseManager(config *ConnectionConfig) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &defaultDatabaseManager{
		config: config,
		logger: GetLogger(),
	}
}

func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.db != nil {
		return nil
	}

	db, err := dm.open()
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dm.config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}

	dm.db = db
	dm.sqlDB = db.DB

	if dm.config.HealthCheckInterval > 0 {
		loopCtx, stop := context.WithCancel(context.Background())
		dm.stopHealth = stop
		go dm.healthLoop(loopCtx)
	}

	dm.logger.Info("Database connected", "type", NormalizeType(dm.config.Type), "host", dm.config.Host, "dbname", dm.config.DBName)
	return nil
}

// open builds the bun handle for the configured backend with pool limits and
// query hooks applied. It does not touch the network.
func (dm *defaultDatabaseManager) open() (*bun.DB, error) {
	if dm.config.ConnectTimeout <= 0 {
		dm.config.ConnectTimeout = defaultConnectTimeout
	}
	spec, err := resolveDriver(dm.config)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(spec.driver, spec.dsn)
	if err != nil {
		return nil, err
	}

	if isSQLiteMemory(dm.config) {
		// each pooled connection would see its own empty database
		dm.config.MaxOpenConns, dm.config.MaxIdleConns = 1, 1
		dm.config.ConnMaxLifetime, dm.config.ConnMaxIdleTime = 0, 0
	}
	sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dm.config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dm.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dm.config.ConnMaxIdleTime)

	db := bun.NewDB(sqlDB, spec.dialect())
	db.RegisterModel(RegisteredModelInstances()...)
	dm.addHooks(db)
	return db, nil
}

func (dm *defaultDatabaseManager) addHooks(db *bun.DB) {
	switch {
	case dm.config.EnableQueryLog && dm.config.ColorQueryLog:
		db.AddQueryHook(NewQueryHook(WithQueryHookVerbose(true), QueryHookFromEnv("BUNDEBUG")))
	case dm.config.EnableQueryLog:
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true), bundebug.FromEnv("BUNDEBUG")))
	}
	if dm.config.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(dm.config.SlowQueryTime, dm.logger))
	}
}

func (dm *defaultDatabaseManager) Disconnect() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.stopHealth != nil {
		dm.stopHealth()
		dm.stopHealth = nil
	}
	if dm.db == nil {
		return nil
	}

	err := dm.db.Close()
	dm.db, dm.sqlDB = nil, nil
	if err != nil {
		dm.logger.Error("Failed to close database connection", "error", err)
		return err
	}
	dm.logger.Info("Database connection closed")
	return nil
}

func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	dm.logger.Info("Attempting to reconnect to the database")
	if err := dm.Disconnect(); err != nil {
		dm.logger.Warn("Error disconnecting existing connection", "error", err)
	}
	return dm.Connect(ctx)
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return ErrNotConnected
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) GetSQLDB() *sql.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.sqlDB
}

func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	start := time.Now()
	status := &HealthStatus{LastCheckTime: start}
	if dm.db == nil {
		status.LastError = ErrNotConnected.Error()
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	err := dm.db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)
	status.Healthy = err == nil
	status.Connected = err == nil
	if err != nil {
		status.LastError = err.Error()
	}

	stats := dm.sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections

	return status
}

// healthLoop pings on every HealthCheckInterval tick until Disconnect
// cancels ctx, reopening the handle when enabled and the check fails.
func (dm *defaultDatabaseManager) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(dm.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 2*pingTimeout)
			status := dm.HealthCheck(checkCtx)
			cancel()
			if !status.Healthy && dm.config.EnableReconnect {
				dm.tryReconnect(ctx)
			}
		}
	}
}

func (dm *defaultDatabaseManager) tryReconnect(ctx context.Context) {
	if dm.reconnectTries >= dm.config.MaxReconnectTries {
		dm.logger.Error("Max reconnect attempts reached", "tries", dm.reconnectTries)
		return
	}
	dm.reconnectTries++
	dm.logger.Info("Starting database reconnect", "try", dm.reconnectTries)

	select {
	case <-ctx.Done():
		return
	case <-time.After(dm.config.ReconnectInterval):
	}

	connectCtx, cancel := context.WithTimeout(ctx, dm.config.ConnectTimeout)
	defer cancel()
	if err := dm.reopen(connectCtx); err != nil {
		dm.logger.Error("Reconnect failed", "error", err, "try", dm.reconnectTries)
		return
	}
	dm.reconnectTries = 0
	dm.logger.Info("Reconnect succeeded")
}

// reopen swaps in a freshly pinged handle, leaving the health loop running.
// It gives up when ctx was cancelled by Disconnect in the meantime.
func (dm *defaultDatabaseManager) reopen(ctx context.Context) error {
	db, err := dm.open()
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	dm.mu.Lock()
	if err := ctx.Err(); err != nil {
		dm.mu.Unlock()
		_ = db.Close()
		return err
	}
	old := dm.db
	dm.db, dm.sqlDB = db, db.DB
	dm.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	sqlDB := dm.GetSQLDB()
	if sqlDB == nil {
		return &DBStats{}
	}

	s := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      s.MaxOpenConnections,
		OpenConns:         s.OpenConnections,
		InUse:             s.InUse,
		Idle:              s.Idle,
		WaitCount:         s.WaitCount,
		WaitDuration:      s.WaitDuration,
		MaxIdleClosed:     s.MaxIdleClosed,
		MaxIdleTimeClosed: s.MaxIdleTimeClosed,
		MaxLifetimeClosed: s.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return ErrNotConnected
	}
	return NewMigrationManager(db, dm.logger, nil).RunMigrations(ctx)
}

func (dm *defaultDatabaseManager) InitData(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return ErrNotConnected
	}
	return NewMigrationManager(db, dm.logger, nil).InitData(ctx)
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	if logger == nil {
		logger = NopLogger()
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}
