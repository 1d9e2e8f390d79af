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

// Package models holds the bun table models for agents, llms and tools together
// with their query objects.
package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Timestamps is embedded by every model. created_at is set once on insert and
// updated_at on every insert and update.
type Timestamps struct {
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	Remark    *string   `bun:"remark,type:varchar(256)" json:"remark,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*Timestamps)(nil)

func (t *Timestamps) BeforeAppendModel(_ context.Context, query bun.Query) error {
	now := time.Now()
	switch query.(type) {
	case *bun.InsertQuery:
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
	case *bun.UpdateQuery:
		t.UpdatedAt = now
	}
	return nil
}

// Table registration priorities. Referenced tables are created first.
const (
	priorityLLM = iota * 10
	priorityTool
	priorityAgent
)
