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

	"github.com/uptrace/bun"
)

// UnitOfWork is a function executed inside one transaction.
type UnitOfWork func(ctx context.Context, tx bun.Tx) error

// RunInUnitOfWork runs fn in a transaction on db and commits when fn returns
// nil; any error or panic rolls it back. When db is already a transaction fn
// joins it and the outer caller decides the outcome.
func RunInUnitOfWork(ctx context.Context, db bun.IDB, fn UnitOfWork) error {
	return RunInUnitOfWorkWithOptions(ctx, db, &sql.TxOptions{}, fn)
}

// RunInUnitOfWorkWithOptions is RunInUnitOfWork with explicit isolation options.
func RunInUnitOfWorkWithOptions(ctx context.Context, db bun.IDB, opts *sql.TxOptions, fn UnitOfWork) error {
	switch tx := db.(type) {
	case bun.Tx:
		return fn(ctx, tx)
	case *bun.Tx:
		return fn(ctx, *tx)
	}
	return db.RunInTx(ctx, opts, fn)
}
