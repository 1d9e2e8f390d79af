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
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/schema"
	"gopkg.in/yaml.v3"
)

// ForeignKeyConstraint describes a foreign key relationship between tables.
type ForeignKeyConstraint struct {
	Table           string `yaml:"table"`
	Column          string `yaml:"column"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	OnDelete        string `yaml:"on_delete"` // CASCADE, RESTRICT, SET NULL, NO ACTION
	OnUpdate        string `yaml:"on_update"`
	ConstraintName  string `yaml:"constraint_name"`
}

// ForeignKeyConfig is the YAML document listing foreign key constraints.
type ForeignKeyConfig struct {
	ForeignKeys []ForeignKeyConstraint `yaml:"foreign_keys"`
}

// GenerateConstraintName returns the explicit name or a derived name.
func (fk *ForeignKeyConstraint) GenerateConstraintName() string {
	if fk.ConstraintName != "" {
		return fk.ConstraintName
	}
	return fmt.Sprintf("fk_%s_%s", fk.Table, fk.Column)
}

// GenerateSQL returns the ALTER TABLE statement adding the constraint, with
// identifiers quoted for dialect.
func (fk *ForeignKeyConstraint) GenerateSQL(dialect schema.Dialect) string {
	query := schema.NewFormatter(dialect).FormatQuery(
		"ALTER TABLE ? ADD CONSTRAINT ? FOREIGN KEY (?) REFERENCES ? (?)",
		bun.Ident(fk.Table),
		bun.Ident(fk.GenerateConstraintName()),
		bun.Ident(fk.Column),
		bun.Ident(fk.ReferenceTable),
		bun.Ident(fk.ReferenceColumn),
	)
	if fk.OnDelete != "" {
		query += " ON DELETE " + strings.ToUpper(fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		query += " ON UPDATE " + strings.ToUpper(fk.OnUpdate)
	}
	return query
}

// ForeignKeyManager adds the configured foreign keys to an existing schema.
type ForeignKeyManager struct {
	constraints []ForeignKeyConstraint
	logger      Logger
}

// NewForeignKeyManager creates a manager with the built-in constraints.
func NewForeignKeyManager(logger Logger) *ForeignKeyManager {
	if logger == nil {
		logger = NopLogger()
	}
	return &ForeignKeyManager{
		constraints: DefaultForeignKeyConstraints(),
		logger:      logger,
	}
}

// NewForeignKeyManagerFromFile loads constraints from a YAML file. A missing
// or empty path falls back to the built-in constraints.
func NewForeignKeyManagerFromFile(logger Logger, path string) (*ForeignKeyManager, error) {
	if logger == nil {
		logger = NopLogger()
	}
	if path == "" {
		return NewForeignKeyManager(logger), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("Foreign key file not found, using built-in constraints", "path", path)
		return NewForeignKeyManager(logger), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign key file: %w", err)
	}

	var cfg ForeignKeyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse foreign key file %s: %w", path, err)
	}
	return &ForeignKeyManager{constraints: cfg.ForeignKeys, logger: logger}, nil
}

// DefaultForeignKeyConstraints links each agent to the llm it runs on.
func DefaultForeignKeyConstraints() []ForeignKeyConstraint {
	return []ForeignKeyConstraint{
		{
			Table:           "agent",
			Column:          "agent_model_id",
			ReferenceTable:  "llm",
			ReferenceColumn: "id",
			OnDelete:        "RESTRICT",
		},
	}
}

// AddAllForeignKeys adds every constraint not already present and returns how
// many were added. sqlite cannot add constraints to an existing table, so
// there the constraints are logged and skipped.
func (fkm *ForeignKeyManager) AddAllForeignKeys(ctx context.Context, db bun.IDB) (int, error) {
	if db.Dialect().Name() == dialect.SQLite {
		fkm.logger.Warn("Foreign keys are not supported on existing sqlite tables, skipped", "count", len(fkm.constraints))
		return 0, nil
	}

	added := 0
	for _, constraint := range fkm.constraints {
		name := constraint.GenerateConstraintName()
		exists, err := fkm.constraintExists(ctx, db, constraint)
		if err != nil {
			return added, fmt.Errorf("failed to look up constraint %s: %w", name, err)
		}
		if exists {
			fkm.logger.Debug("Foreign key constraint already exists", "constraint", name)
			continue
		}
		if _, err := db.ExecContext(ctx, constraint.GenerateSQL(db.Dialect())); err != nil {
			return added, fmt.Errorf("failed to add constraint %s: %w", name, err)
		}
		added++
		fkm.logger.Debug("Added foreign key constraint", "constraint", name)
	}
	return added, nil
}

func (fkm *ForeignKeyManager) constraintExists(ctx context.Context, db bun.IDB, fk ForeignKeyConstraint) (bool, error) {
	return db.NewSelect().
		TableExpr("information_schema.table_constraints").
		Where("constraint_name = ?", fk.GenerateConstraintName()).
		Where("table_name = ?", fk.Table).
		Where("constraint_type = ?", "FOREIGN KEY").
		Exists(ctx)
}

// GetConstraintsByTable returns the constraints defined on a table.
func (fkm *ForeignKeyManager) GetConstraintsByTable(tableName string) []ForeignKeyConstraint {
	var result []ForeignKeyConstraint
	for _, constraint := range fkm.constraints {
		if strings.EqualFold(constraint.Table, tableName) {
			result = append(result, constraint)
		}
	}
	return result
}

func (fkm *ForeignKeyManager) ListAllConstraints() []ForeignKeyConstraint {
	return fkm.constraints
}

var referentialActions = []string{"CASCADE", "RESTRICT", "SET NULL", "SET DEFAULT", "NO ACTION"}

func validAction(action string) bool {
	if action == "" {
		return true
	}
	for _, a := range referentialActions {
		if strings.EqualFold(action, a) {
			return true
		}
	}
	return false
}

// ValidateConstraints checks the configured constraints for missing names and unknown actions.
func (fkm *ForeignKeyManager) ValidateConstraints() error {
	var errs []error
	for _, c := range fkm.constraints {
		if c.Table == "" || c.Column == "" || c.ReferenceTable == "" || c.ReferenceColumn == "" {
			errs = append(errs, fmt.Errorf("incomplete foreign key %s.%s -> %s.%s", c.Table, c.Column, c.ReferenceTable, c.ReferenceColumn))
			continue
		}
		if !validAction(c.OnDelete) {
			errs = append(errs, fmt.Errorf("invalid delete policy %q on %s", c.OnDelete, c.GenerateConstraintName()))
		}
		if !validAction(c.OnUpdate) {
			errs = append(errs, fmt.Errorf("invalid update policy %q on %s", c.OnUpdate, c.GenerateConstraintName()))
		}
	}
	return errors.Join(errs...)
}
