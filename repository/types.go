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

	"github.com/tomoncle/findagent/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// ID is the set of identifier types an entity primary key may use.
type ID interface {
	~int | ~int32 | ~int64 | ~string
}

// CrudRepository defines the mutating operations for an entity type. Whether a
// change commits immediately or with the caller's unit of work depends on the
// bun.IDB the repository is bound to.
type CrudRepository[T any, K ID] interface {
	// Save inserts entity and returns it with generated fields populated.
	Save(ctx context.Context, entity *T) (*T, error)

	// SaveAll inserts entities one by one, stopping at the first error.
	SaveAll(ctx context.Context, entities []*T) error

	// Update writes entity over the row with the same primary key. A missing
	// row is not an error.
	Update(ctx context.Context, entity *T) (*T, error)

	// UpdateAll updates entities one by one, stopping at the first error.
	UpdateAll(ctx context.Context, entities []*T) error

	// Delete removes the row with entity's primary key and reports whether a row was removed.
	Delete(ctx context.Context, entity *T) (bool, error)

	// DeleteByID removes the row with id and reports whether a row was removed.
	DeleteByID(ctx context.Context, id K) (bool, error)

	// DeleteAll deletes entities by primary key and returns how many rows were removed.
	DeleteAll(ctx context.Context, entities []*T) (int, error)
}

// QueryRepository defines the read operations for an entity type. A nil query
// matches every row.
type QueryRepository[T any, K ID] interface {
	Exists(ctx context.Context, query types.Criteria) (bool, error)

	Count(ctx context.Context, query types.Criteria) (int, error)

	// FindByID returns nil without error when no row has id.
	FindByID(ctx context.Context, id K) (*T, error)

	FindByIDs(ctx context.Context, ids []K, query types.Criteria) ([]*T, error)

	// FindAll returns matching rows ordered by order, or by id descending when order is nil.
	FindAll(ctx context.Context, query types.Criteria, order *types.Order) ([]*T, error)
}

// PageQueryRepository defines paginated reads.
type PageQueryRepository[T any] interface {
	FindBy(ctx context.Context, search *types.PageHelper) (*types.Paginate[T], error)
}

// Repository combines CRUD, query and pagination operations for one entity
// type and exposes bun builders for entity-specific queries.
type Repository[T any, K ID] interface {
	CrudRepository[T, K]
	QueryRepository[T, K]
	PageQueryRepository[T]

	// WithTx returns a repository bound to the unit of work tx.
	WithTx(tx bun.Tx) Repository[T, K]

	// DB returns the connection or transaction the repository is bound to.
	DB() bun.IDB

	Dialect() schema.Dialect

	// NewSelect returns a select query on the entity model.
	NewSelect() *bun.SelectQuery

	// Where applies query to q as AND-ed equality predicates.
	Where(q *bun.SelectQuery, query types.Criteria) *bun.SelectQuery
}
