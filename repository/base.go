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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/tomoncle/findagent/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

const pkColumn = "id"

type baseRepositoryImpl[T any, K ID] struct {
	db bun.IDB
}

// NewRepository returns a generic repository bound to db, which is either the
// pooled *bun.DB or a bun.Tx opened by the caller.
func NewRepository[T any, K ID](db bun.IDB) Repository[T, K] {
	return &baseRepositoryImpl[T, K]{db: db}
}

func (r *baseRepositoryImpl[T, K]) WithTx(tx bun.Tx) Repository[T, K] {
	return &baseRepositoryImpl[T, K]{db: tx}
}

func (r *baseRepositoryImpl[T, K]) DB() bun.IDB { return r.db }

func (r *baseRepositoryImpl[T, K]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T, K]) NewSelect() *bun.SelectQuery {
	return r.db.NewSelect().Model((*T)(nil))
}

func (r *baseRepositoryImpl[T, K]) Where(q *bun.SelectQuery, query types.Criteria) *bun.SelectQuery {
	if query == nil {
		return q
	}
	for _, c := range query.Conditions() {
		q = q.Where("? = ?", bun.Ident(c.Column), c.Value)
	}
	return q
}

func (r *baseRepositoryImpl[T, K]) Save(ctx context.Context, entity *T) (*T, error) {
	if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T, K]) SaveAll(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		if _, err := r.Save(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T, K]) Update(ctx context.Context, entity *T) (*T, error) {
	_, err := r.db.NewUpdate().
		Model(entity).
		ExcludeColumn("created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T, K]) UpdateAll(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		if _, err := r.Update(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T, K]) Delete(ctx context.Context, entity *T) (bool, error) {
	res, err := r.db.NewDelete().Model(entity).WherePK().Exec(ctx)
	return affected(res, err)
}

func (r *baseRepositoryImpl[T, K]) DeleteByID(ctx context.Context, id K) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*T)(nil)).
		Where("? = ?", bun.Ident(pkColumn), id).
		Exec(ctx)
	return affected(res, err)
}

func (r *baseRepositoryImpl[T, K]) DeleteAll(ctx context.Context, entities []*T) (int, error) {
	removed := 0
	for _, entity := range entities {
		ok, err := r.Delete(ctx, entity)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

func (r *baseRepositoryImpl[T, K]) Exists(ctx context.Context, query types.Criteria) (bool, error) {
	return r.Where(r.NewSelect(), query).Exists(ctx)
}

func (r *baseRepositoryImpl[T, K]) Count(ctx context.Context, query types.Criteria) (int, error) {
	return r.Where(r.NewSelect(), query).Count(ctx)
}

func (r *baseRepositoryImpl[T, K]) FindByID(ctx context.Context, id K) (*T, error) {
	entity := new(T)
	err := r.db.NewSelect().
		Model(entity).
		Where("? = ?", bun.Ident(pkColumn), id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T, K]) FindByIDs(ctx context.Context, ids []K, query types.Criteria) ([]*T, error) {
	entities := make([]*T, 0, len(ids))
	if len(ids) == 0 {
		return entities, nil
	}
	q := r.db.NewSelect().
		Model(&entities).
		Where("? IN (?)", bun.Ident(pkColumn), bun.In(ids))
	err := r.Where(q, query).
		OrderExpr("? DESC", bun.Ident(pkColumn)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T, K]) FindAll(ctx context.Context, query types.Criteria, order *types.Order) ([]*T, error) {
	orders := []types.Order{types.Desc(pkColumn)}
	if order != nil {
		orders = []types.Order{*order}
	}
	if err := r.validateOrders(orders); err != nil {
		return nil, err
	}
	entities := make([]*T, 0)
	q := r.Where(r.db.NewSelect().Model(&entities), query)
	if err := applyOrders(q, orders).Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T, K]) FindBy(ctx context.Context, search *types.PageHelper) (*types.Paginate[T], error) {
	if err := search.Validate(); err != nil {
		return nil, err
	}
	orders := search.Orders()
	if err := r.validateOrders(orders); err != nil {
		return nil, err
	}

	counts, err := r.Count(ctx, search.Query)
	if err != nil {
		return nil, err
	}
	page := types.NewPaginate[T](search.Pager, counts, orders)
	if !page.InRange() {
		return page, nil
	}

	if len(orders) == 0 {
		orders = []types.Order{types.Desc(pkColumn)}
	}
	q := r.Where(r.db.NewSelect().Model(&page.Items), search.Query)
	err = applyOrders(q, orders).
		Limit(page.PageSize).
		Offset(page.Offset()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// validateOrders checks every order against the entity table before the query is built.
func (r *baseRepositoryImpl[T, K]) validateOrders(orders []types.Order) error {
	if len(orders) == 0 {
		return nil
	}
	table := r.db.Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem())
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return err
		}
		if !table.HasField(o.Property) {
			return fmt.Errorf("%w: %s has no column %q", types.ErrUnknownColumn, table.Name, o.Property)
		}
	}
	return nil
}

func applyOrders(q *bun.SelectQuery, orders []types.Order) *bun.SelectQuery {
	for _, o := range orders {
		if o.IsDesc() {
			q = q.OrderExpr("? DESC", bun.Ident(o.Property))
		} else {
			q = q.OrderExpr("? ASC", bun.Ident(o.Property))
		}
	}
	return q
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
