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
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/findagent/internal/testdb"
	"github.com/uptrace/bun"
)

func TestRunInUnitOfWorkCommits(t *testing.T) {
	db, mock := testdb.NewMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tool").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := RunInUnitOfWork(context.Background(), db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, "UPDATE tool SET status = 0")
		return err
	})
	require.NoError(t, err)
}

func TestRunInUnitOfWorkRollsBack(t *testing.T) {
	db, mock := testdb.NewMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := RunInUnitOfWork(context.Background(), db, func(context.Context, bun.Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunInUnitOfWorkJoinsTransaction(t *testing.T) {
	db, mock := testdb.NewMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM tool").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM agent").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	err := RunInUnitOfWork(ctx, db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tool"); err != nil {
			return err
		}
		// no nested BEGIN is expected by the mock
		return RunInUnitOfWork(ctx, tx, func(ctx context.Context, inner bun.Tx) error {
			_, err := inner.ExecContext(ctx, "DELETE FROM agent")
			return err
		})
	})
	require.NoError(t, err)
}
