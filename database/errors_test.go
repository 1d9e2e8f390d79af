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
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		is   bool
		kind SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", sql.ErrNoRows, true, NoRowsErr},
		{"wrapped no rows", fmt.Errorf("find: %w", sql.ErrNoRows), true, NoRowsErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'name'"}, true, DuplicateKeyErr},
		{"mysql missing table", &mysql.MySQLError{Number: 1146}, true, NoTableErr},
		{"mysql unmapped", &mysql.MySQLError{Number: 2006}, true, UnknownErr},
		{"postgres duplicate", &pq.Error{Code: "23505"}, true, DuplicateKeyErr},
		{"postgres foreign key", fmt.Errorf("insert: %w", &pq.Error{Code: "23503"}), true, ForeignKeyViolationErr},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: agent.name (2067)"), true, DuplicateKeyErr},
		{"sqlite not null", errors.New("NOT NULL constraint failed: tool.name"), true, NotNullViolationErr},
		{"sqlite table", errors.New("SQL logic error: no such table: llm (1)"), true, NoTableErr},
		{"sqlite column", errors.New("no such column: zh_name"), true, NoColumnErr},
		{"other", errors.New("connection refused"), false, UnknownErr},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is, kind := IsSqlError(c.err)
			assert.Equal(t, c.is, is)
			assert.Equal(t, c.kind, kind, kind.String())
		})
	}
}

func TestIsSqlErrorKind(t *testing.T) {
	err := errors.New("UNIQUE constraint failed: tool.tool_function")
	assert.True(t, IsSqlErrorKind(err, DuplicateKeyErr))
	assert.False(t, IsSqlErrorKind(err, NoRowsErr))
	assert.False(t, IsSqlErrorKind(nil, UnknownErr))
}

func TestSQLErrorString(t *testing.T) {
	assert.Equal(t, "duplicate_key", DuplicateKeyErr.String())
	assert.Equal(t, "unknown", SQLError(99).String())
}
