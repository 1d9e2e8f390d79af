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

package findagent

import (
	"context"

	"github.com/tomoncle/findagent/database"
	"github.com/tomoncle/findagent/repository"
	"github.com/tomoncle/findagent/types"
	"github.com/uptrace/bun"
)

// Service exposes the repository operations for one entity type. Entity
// services embed it and layer their own rules on top.
type Service[T any, K repository.ID] interface {
	// Save inserts a new entity.
	Save(ctx context.Context, model *T) (*T, error)

	// SaveAll inserts entities one at a time.
	SaveAll(ctx context.Context, models []*T) error

	// Update writes model over the row with the same identifier.
	Update(ctx context.Context, model *T) (*T, error)

	// UpdateAll updates entities one at a time.
	UpdateAll(ctx context.Context, models []*T) error

	// Delete removes model and reports whether a row was removed.
	Delete(ctx context.Context, model *T) (bool, error)

	// DeleteByID removes an entity by its identifier.
	DeleteByID(ctx context.Context, id K) (bool, error)

	// DeleteAll removes models and returns how many rows were removed.
	DeleteAll(ctx context.Context, models []*T) (int, error)

	// Exists reports whether any entity matches query.
	Exists(ctx context.Context, query types.Criteria) (bool, error)

	// Count returns the number of entities matching query.
	Count(ctx context.Context, query types.Criteria) (int, error)

	// Get returns a single entity by its identifier, or nil.
	Get(ctx context.Context, id K) (*T, error)

	// GetByIDs returns the entities with the given identifiers that also match query.
	GetByIDs(ctx context.Context, ids []K, query types.Criteria) ([]*T, error)

	// List returns entities that match query.
	List(ctx context.Context, query types.Criteria, order *types.Order) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageHelper) (*types.Paginate[T], error)

	// WithTx returns a service bound to the unit of work tx.
	WithTx(tx bun.Tx) Service[T, K]

	// Repository returns the underlying repository.
	Repository() repository.Repository[T, K]

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery
}

type baseServiceImpl[T any, K repository.ID] struct {
	// nil means the global connection, looked up on every call
	repo repository.Repository[T, K]
}

// NewService returns a Service backed by the global database connection. The
// connection is resolved per call, so the service follows a reconnect.
func NewService[T any, K repository.ID]() Service[T, K] {
	return &baseServiceImpl[T, K]{}
}

// NewServiceWithDB returns a Service bound to db.
func NewServiceWithDB[T any, K repository.ID](db bun.IDB) Service[T, K] {
	return &baseServiceImpl[T, K]{repo: repository.NewRepository[T, K](db)}
}

// NewServiceFromRepository wraps an existing repository.
func NewServiceFromRepository[T any, K repository.ID](repo repository.Repository[T, K]) Service[T, K] {
	return &baseServiceImpl[T, K]{repo: repo}
}

func (s *baseServiceImpl[T, K]) baseRepo() repository.Repository[T, K] {
	if s.repo != nil {
		return s.repo
	}
	return repository.NewRepository[T, K](database.GetDB())
}

func (s *baseServiceImpl[T, K]) Repository() repository.Repository[T, K] { return s.baseRepo() }

func (s *baseServiceImpl[T, K]) WithTx(tx bun.Tx) Service[T, K] {
	return NewServiceFromRepository[T, K](s.baseRepo().WithTx(tx))
}

func (s *baseServiceImpl[T, K]) Save(ctx context.Context, model *T) (*T, error) {
	return s.baseRepo().Save(ctx, model)
}

func (s *baseServiceImpl[T, K]) SaveAll(ctx context.Context, models []*T) error {
	return s.baseRepo().SaveAll(ctx, models)
}

func (s *baseServiceImpl[T, K]) Update(ctx context.Context, model *T) (*T, error) {
	return s.baseRepo().Update(ctx, model)
}

func (s *baseServiceImpl[T, K]) UpdateAll(ctx context.Context, models []*T) error {
	return s.baseRepo().UpdateAll(ctx, models)
}

func (s *baseServiceImpl[T, K]) Delete(ctx context.Context, model *T) (bool, error) {
	return s.baseRepo().Delete(ctx, model)
}

func (s *baseServiceImpl[T, K]) DeleteByID(ctx context.Context, id K) (bool, error) {
	return s.baseRepo().DeleteByID(ctx, id)
}

func (s *baseServiceImpl[T, K]) DeleteAll(ctx context.Context, models []*T) (int, error) {
	return s.baseRepo().DeleteAll(ctx, models)
}

func (s *baseServiceImpl[T, K]) Exists(ctx context.Context, query types.Criteria) (bool, error) {
	return s.baseRepo().Exists(ctx, query)
}

func (s *baseServiceImpl[T, K]) Count(ctx context.Context, query types.Criteria) (int, error) {
	return s.baseRepo().Count(ctx, query)
}

func (s *baseServiceImpl[T, K]) Get(ctx context.Context, id K) (*T, error) {
	return s.baseRepo().FindByID(ctx, id)
}

func (s *baseServiceImpl[T, K]) GetByIDs(ctx context.Context, ids []K, query types.Criteria) ([]*T, error) {
	return s.baseRepo().FindByIDs(ctx, ids, query)
}

func (s *baseServiceImpl[T, K]) List(ctx context.Context, query types.Criteria, order *types.Order) ([]*T, error) {
	return s.baseRepo().FindAll(ctx, query, order)
}

func (s *baseServiceImpl[T, K]) Page(ctx context.Context, page *types.PageHelper) (*types.Paginate[T], error) {
	return s.baseRepo().FindBy(ctx, page)
}

func (s *baseServiceImpl[T, K]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().NewSelect()
}
