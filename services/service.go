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

// Package services layers the business rules for agents, llms and tools on top
// of the generic findagent.Service: request validation, caller-level
// uniqueness checks, keyword search and batch status updates.
package services

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tomoncle/findagent"
	"github.com/tomoncle/findagent/database"
	"github.com/tomoncle/findagent/types"
	"github.com/tomoncle/findagent/utils"
	"github.com/uptrace/bun"
)

const idColumn = "id"

var (
	log      = utils.NewLogger("SERVICE")
	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func validateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return newValidationError(err)
	}
	return nil
}

func newService[T any](db bun.IDB) findagent.Service[T, int64] {
	if db == nil {
		return findagent.NewService[T, int64]()
	}
	return findagent.NewServiceWithDB[T, int64](db)
}

// keywordMatch adds an OR group of case-insensitive substring matches over
// columns. A blank keyword leaves q unchanged.
func keywordMatch(q *bun.SelectQuery, keyword string, columns ...string) *bun.SelectQuery {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return q
	}
	pattern := "%" + strings.ToLower(keyword) + "%"
	return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, col := range columns {
			q = q.WhereOr("LOWER(?) LIKE ?", bun.Ident(col), pattern)
		}
		return q
	})
}

// valueTaken reports whether another row than excludeID already holds value in column.
func valueTaken(ctx context.Context, q *bun.SelectQuery, column string, value interface{}, excludeID int64) (bool, error) {
	q = q.Where("? = ?", bun.Ident(column), value)
	if excludeID > 0 {
		q = q.Where("? != ?", bun.Ident(idColumn), excludeID)
	}
	return q.Exists(ctx)
}

func scanIn[T any](ctx context.Context, q *bun.SelectQuery, column string, values []string) ([]*T, error) {
	items := make([]*T, 0, len(values))
	if len(values) == 0 {
		return items, nil
	}
	err := q.Where("? IN (?)", bun.Ident(column), bun.In(values)).
		OrderExpr("? DESC", bun.Ident(idColumn)).
		Scan(ctx, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func scanAll[T any](ctx context.Context, q *bun.SelectQuery) ([]*T, error) {
	items := make([]*T, 0)
	if err := q.OrderExpr("? DESC", bun.Ident(idColumn)).Scan(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// batchUpdateStatus sets status on every existing entity of ids inside one
// unit of work and returns how many were updated. Unknown ids are skipped.
func batchUpdateStatus[T any](ctx context.Context, svc findagent.Service[T, int64], ids []int64, status types.Status, set func(*T, types.Status)) (int, error) {
	if !status.IsValid() {
		return 0, ErrInvalidStatus
	}
	if len(ids) == 0 {
		return 0, nil
	}
	updated := 0
	err := database.RunInUnitOfWork(ctx, svc.Repository().DB(), func(ctx context.Context, tx bun.Tx) error {
		txSvc := svc.WithTx(tx)
		items, err := txSvc.GetByIDs(ctx, ids, nil)
		if err != nil {
			return err
		}
		for _, item := range items {
			set(item, status)
		}
		if err := txSvc.UpdateAll(ctx, items); err != nil {
			return err
		}
		updated = len(items)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func isDuplicate(err error) bool {
	return database.IsSqlErrorKind(err, database.DuplicateKeyErr)
}
