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

package types

import "reflect"

// Condition is a single column = value predicate.
type Condition struct {
	Column string
	Value  interface{}
}

// Criteria is a query object. Each set field yields one equality Condition;
// an empty result matches every row.
type Criteria interface {
	Conditions() []Condition
}

// Conditions accumulates equality predicates from optional fields.
type Conditions []Condition

// Eq appends column = *value unless value is nil. Empty strings, including
// empty values of named string types, are treated as unset.
func Eq[V comparable](conds Conditions, column string, value *V) Conditions {
	if value == nil {
		return conds
	}
	if rv := reflect.ValueOf(*value); rv.Kind() == reflect.String && rv.Len() == 0 {
		return conds
	}
	return append(conds, Condition{Column: column, Value: *value})
}

// MatchAll is the query object with no fields set.
type MatchAll struct{}

func (MatchAll) Conditions() []Condition { return nil }

// Ptr returns a pointer to v. Handy when building query objects.
func Ptr[V any](v V) *V { return &v }
