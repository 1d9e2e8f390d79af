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
	database.RegisterModel((*LLM)(nil), priorityLLM)
}

// LLM is a hosted model endpoint an agent runs on.
type LLM struct {
	bun.BaseModel `bun:"table:llm,alias:llm"`

	ID        int64           `bun:"id,pk,autoincrement" json:"id"`
	Provider  string          `bun:"provider,type:varchar(256),notnull" json:"provider"`
	ModelName string          `bun:"model_name,type:varchar(256),notnull,unique" json:"model_name"`
	ModelType types.ModelType `bun:"model_type,type:varchar(256),notnull" json:"model_type"`
	APIKey    string          `bun:"api_key,type:varchar(256),notnull" json:"api_key"`
	APIURL    string          `bun:"api_url,type:varchar(256),notnull" json:"api_url"`
	Status    types.Status    `bun:"status,notnull" json:"status"`
	Timestamps
}

type LLMQuery struct {
	Provider  *string
	ModelName *string
	ModelType *types.ModelType
	APIURL    *string
	Status    *types.Status
	Remark    *string
}

func (q *LLMQuery) Conditions() []types.Condition {
	if q == nil {
		return nil
	}
	var c types.Conditions
	c = types.Eq(c, "provider", q.Provider)
	c = types.Eq(c, "model_name", q.ModelName)
	c = types.Eq(c, "model_type", q.ModelType)
	c = types.Eq(c, "api_url", q.APIURL)
	c = types.Eq(c, "status", q.Status)
	c = types.Eq(c, "remark", q.Remark)
	return c
}
