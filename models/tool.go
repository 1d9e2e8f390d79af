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

package models

import (
	"github.com/tomoncle/findagent/database"
	"github.com/tomoncle/findagent/types"
	"github.com/uptrace/bun"
)

func init() {
	database.RegisterModel((*Tool)(nil), priorityTool)
}

// Tool is a callable capability an agent can bind.
type Tool struct {
	bun.BaseModel `bun:"table:tool,alias:tool"`

	ID             int64        `bun:"id,pk,autoincrement" json:"id"`
	Name           string       `bun:"name,type:varchar(256),notnull,unique" json:"name"`
	Description    string       `bun:"description,type:varchar(256),notnull" json:"description"`
	ToolFunction   string       `bun:"tool_function,type:varchar(256),notnull,unique" json:"tool_function"`
	IsDirectReturn bool         `bun:"is_direct_return,notnull" json:"is_direct_return"`
	Status         types.Status `bun:"status,notnull" json:"status"`
	Timestamps
}

// ToolQuery filters tools. Nil fields and empty strings match anything.
type ToolQuery struct {
	Name           *string
	Description    *string
	ToolFunction   *string
	IsDirectReturn *bool
	Status         *types.Status
	Remark         *string
}

func (q *ToolQuery) Conditions() []types.Condition {
	if q == nil {
		return nil
	}
	var c types.Conditions
	c = types.Eq(c, "name", q.Name)
	c = types.Eq(c, "description", q.Description)
	c = types.Eq(c, "tool_function", q.ToolFunction)
	c = types.Eq(c, "is_direct_return", q.IsDirectReturn)
	c = types.Eq(c, "status", q.Status)
	c = types.Eq(c, "remark", q.Remark)
	return c
}
