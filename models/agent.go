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
	database.RegisterModel((*Agent)(nil), priorityAgent)
}

// Agent is a prompt bound to an LLM and a comma separated list of tool names.
type Agent struct {
	bun.BaseModel `bun:"table:agent,alias:agent"`

	ID            int64        `bun:"id,pk,autoincrement" json:"id"`
	Name          string       `bun:"name,type:varchar(256),notnull,unique" json:"name"`
	Description   string       `bun:"description,type:varchar(256),notnull" json:"description"`
	Status        types.Status `bun:"status,notnull" json:"status"`
	Prompt        string       `bun:"prompt,type:text,notnull" json:"prompt"`
	BindToolsList string       `bun:"bind_tools_list,type:varchar(256),notnull" json:"bind_tools_list"`
	AgentModelID  int64        `bun:"agent_model_id,notnull" json:"agent_model_id"`
	ZhName        *string      `bun:"zh_name,type:varchar(256)" json:"zh_name,omitempty"`
	IsOptional    bool         `bun:"is_optional,notnull" json:"is_optional"`
	Level         int          `bun:"level,notnull" json:"level"`
	Timestamps
}

type AgentQuery struct {
	Name          *string
	Description   *string
	Status        *types.Status
	BindToolsList *string
	AgentModelID  *int64
	ZhName        *string
	IsOptional    *bool
	Level         *int
	Remark        *string
}

func (q *AgentQuery) Conditions() []types.Condition {
	if q == nil {
		return nil
	}
	var c types.Conditions
	c = types.Eq(c, "name", q.Name)
	c = types.Eq(c, "description", q.Description)
	c = types.Eq(c, "status", q.Status)
	c = types.Eq(c, "bind_tools_list", q.BindToolsList)
	c = types.Eq(c, "agent_model_id", q.AgentModelID)
	c = types.Eq(c, "zh_name", q.ZhName)
	c = types.Eq(c, "is_optional", q.IsOptional)
	c = types.Eq(c, "level", q.Level)
	c = types.Eq(c, "remark", q.Remark)
	return c
}
