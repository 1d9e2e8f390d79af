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
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/findagent/internal/testdb"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func TestGenerateSQL(t *testing.T) {
	fk := ForeignKeyConstraint{
		Table:           "agent",
		Column:          "agent_model_id",
		ReferenceTable:  "llm",
		ReferenceColumn: "id",
		OnDelete:        "restrict",
		OnUpdate:        "cascade",
	}
	assert.Equal(t, "fk_agent_agent_model_id", fk.GenerateConstraintName())
	assert.Equal(t,
		`ALTER TABLE "agent" ADD CONSTRAINT "fk_agent_agent_model_id" FOREIGN KEY ("agent_model_id") REFERENCES "llm" ("id") ON DELETE RESTRICT ON UPDATE CASCADE`,
		fk.GenerateSQL(pgdialect.New()))

	fk.ConstraintName = "agent_llm"
	fk.OnUpdate = ""
	assert.Equal(t,
		"ALTER TABLE `agent` ADD CONSTRAINT `agent_llm` FOREIGN KEY (`agent_model_id`) REFERENCES `llm` (`id`) ON DELETE RESTRICT",
		fk.GenerateSQL(mysqldialect.New()))
}

func TestNewForeignKeyManagerFromFile(t *testing.T) {
	m, err := NewForeignKeyManagerFromFile(nil, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultForeignKeyConstraints(), m.ListAllConstraints())

	m, err = NewForeignKeyManagerFromFile(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Len(t, m.ListAllConstraints(), 1)

	path := filepath.Join(t.TempDir(), "foreign_keys.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
foreign_keys:
  - table: agent
    column: agent_model_id
    reference_table: llm
    reference_column: id
    on_delete: CASCADE
  - table: tool
    column: owner_id
    reference_table: agent
    reference_column: id
`), 0o644))
	m, err = NewForeignKeyManagerFromFile(nil, path)
	require.NoError(t, err)
	require.Len(t, m.ListAllConstraints(), 2)
	assert.Equal(t, "CASCADE", m.ListAllConstraints()[0].OnDelete)
	assert.Len(t, m.GetConstraintsByTable("TOOL"), 1)
	assert.NoError(t, m.ValidateConstraints())

	require.NoError(t, os.WriteFile(path, []byte("foreign_keys: [oops"), 0o644))
	_, err = NewForeignKeyManagerFromFile(nil, path)
	assert.Error(t, err)
}

func TestValidateConstraints(t *testing.T) {
	m := &ForeignKeyManager{logger: NopLogger(), constraints: []ForeignKeyConstraint{
		{Table: "agent", Column: "agent_model_id", ReferenceTable: "llm", ReferenceColumn: "id", OnDelete: "EXPLODE"},
		{Table: "agent", Column: "", ReferenceTable: "llm", ReferenceColumn: "id"},
		{Table: "agent", Column: "x", ReferenceTable: "llm", ReferenceColumn: "id", OnUpdate: "set null"},
	}}
	err := m.ValidateConstraints()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXPLODE")
	assert.Contains(t, err.Error(), "incomplete")
	assert.NotContains(t, err.Error(), "set null")
}

func TestAddAllForeignKeysSkipsSQLite(t *testing.T) {
	db := testdb.New(t)
	added, err := NewForeignKeyManager(nil).AddAllForeignKeys(context.Background(), db)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestAddAllForeignKeysPostgres(t *testing.T) {
	db, mock := testdb.NewMock(t)
	m := &ForeignKeyManager{logger: NopLogger(), constraints: []ForeignKeyConstraint{
		{Table: "agent", Column: "agent_model_id", ReferenceTable: "llm", ReferenceColumn: "id"},
		{Table: "tool", Column: "agent_id", ReferenceTable: "agent", ReferenceColumn: "id"},
	}}

	mock.ExpectQuery("information_schema.table_constraints").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("information_schema.table_constraints").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`ALTER TABLE "tool" ADD CONSTRAINT "fk_tool_agent_id"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	added, err := m.AddAllForeignKeys(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}
