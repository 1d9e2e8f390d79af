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

package services

import (
	"github.com/tomoncle/findagent/models"
	"github.com/tomoncle/findagent/types"
)

type ToolCreate struct {
	Name           string       `json:"name" validate:"required,max=256"`
	Description    string       `json:"description" validate:"required,max=256"`
	ToolFunction   string       `json:"tool_function" validate:"required,max=256"`
	IsDirectReturn bool         `json:"is_direct_return"`
	Status         types.Status `json:"status" validate:"oneof=0 1"`
	Remark         *string      `json:"remark,omitempty" validate:"omitempty,max=256"`
}

func (r *ToolCreate) model() *models.Tool {
	t := &models.Tool{
		Name:           r.Name,
		Description:    r.Description,
		ToolFunction:   r.ToolFunction,
		IsDirectReturn: r.IsDirectReturn,
		Status:         r.Status,
	}
	t.Remark = r.Remark
	return t
}

// ToolUpdate changes only the fields that are set.
type ToolUpdate struct {
	Name           *string       `json:"name,omitempty" validate:"omitempty,max=256"`
	Description    *string       `json:"description,omitempty" validate:"omitempty,max=256"`
	ToolFunction   *string       `json:"tool_function,omitempty" validate:"omitempty,max=256"`
	IsDirectReturn *bool         `json:"is_direct_return,omitempty"`
	Status         *types.Status `json:"status,omitempty" validate:"omitempty,oneof=0 1"`
	Remark         *string       `json:"remark,omitempty" validate:"omitempty,max=256"`
}

func (r *ToolUpdate) apply(t *models.Tool) {
	set(&t.Name, r.Name)
	set(&t.Description, r.Description)
	set(&t.ToolFunction, r.ToolFunction)
	set(&t.IsDirectReturn, r.IsDirectReturn)
	set(&t.Status, r.Status)
	if r.Remark != nil {
		t.Remark = r.Remark
	}
}

type AgentCreate struct {
	Name          string       `json:"name" validate:"required,min=1,max=256"`
	Description   string       `json:"description" validate:"required,min=1,max=256"`
	Status        types.Status `json:"status" validate:"oneof=0 1"`
	Prompt        string       `json:"prompt" validate:"required,min=1,max=10240"`
	BindToolsList string       `json:"bind_tools_list" validate:"max=256"`
	AgentModelID  int64        `json:"agent_model_id" validate:"required"`
	ZhName        *string      `json:"zh_name,omitempty" validate:"omitempty,max=256"`
	IsOptional    bool         `json:"is_optional"`
	Level         int          `json:"level"`
	Remark        *string      `json:"remark,omitempty" validate:"omitempty,max=256"`
}

func (r *AgentCreate) model() *models.Agent {
	a := &models.Agent{
		Name:          r.Name,
		Description:   r.Description,
		Status:        r.Status,
		Prompt:        r.Prompt,
		BindToolsList: r.BindToolsList,
		AgentModelID:  r.AgentModelID,
		ZhName:        r.ZhName,
		IsOptional:    r.IsOptional,
		Level:         r.Level,
	}
	a.Remark = r.Remark
	return a
}

type AgentUpdate struct {
	Name          *string       `json:"name,omitempty" validate:"omitempty,min=1,max=256"`
	Description   *string       `json:"description,omitempty" validate:"omitempty,min=1,max=256"`
	Status        *types.Status `json:"status,omitempty" validate:"omitempty,oneof=0 1"`
	Prompt        *string       `json:"prompt,omitempty" validate:"omitempty,min=1,max=10240"`
	BindToolsList *string       `json:"bind_tools_list,omitempty" validate:"omitempty,max=256"`
	AgentModelID  *int64        `json:"agent_model_id,omitempty"`
	ZhName        *string       `json:"zh_name,omitempty" validate:"omitempty,max=256"`
	IsOptional    *bool         `json:"is_optional,omitempty"`
	Level         *int          `json:"level,omitempty"`
	Remark        *string       `json:"remark,omitempty" validate:"omitempty,max=256"`
}

func (r *AgentUpdate) apply(a *models.Agent) {
	set(&a.Name, r.Name)
	set(&a.Description, r.Description)
	set(&a.Status, r.Status)
	set(&a.Prompt, r.Prompt)
	set(&a.BindToolsList, r.BindToolsList)
	set(&a.AgentModelID, r.AgentModelID)
	set(&a.IsOptional, r.IsOptional)
	set(&a.Level, r.Level)
	if r.ZhName != nil {
		a.ZhName = r.ZhName
	}
	if r.Remark != nil {
		a.Remark = r.Remark
	}
}

type LLMCreate struct {
	Provider  string          `json:"provider" validate:"required,max=256"`
	ModelName string          `json:"model_name" validate:"required,max=256"`
	ModelType types.ModelType `json:"model_type" validate:"required,oneof=1 2 3"`
	APIKey    string          `json:"api_key" validate:"required,max=256"`
	APIURL    string          `json:"api_url" validate:"required,max=256"`
	Status    types.Status    `json:"status" validate:"oneof=0 1"`
	Remark    *string         `json:"remark,omitempty" validate:"omitempty,max=256"`
}

func (r *LLMCreate) model() *models.LLM {
	m := &models.LLM{
		Provider:  r.Provider,
		ModelName: r.ModelName,
		ModelType: r.ModelType,
		APIKey:    r.APIKey,
		APIURL:    r.APIURL,
		Status:    r.Status,
	}
	m.Remark = r.Remark
	return m
}

type LLMUpdate struct {
	Provider  *string          `json:"provider,omitempty" validate:"omitempty,max=256"`
	ModelName *string          `json:"model_name,omitempty" validate:"omitempty,max=256"`
	ModelType *types.ModelType `json:"model_type,omitempty" validate:"omitempty,oneof=1 2 3"`
	APIKey    *string          `json:"api_key,omitempty" validate:"omitempty,max=256"`
	APIURL    *string          `json:"api_url,omitempty" validate:"omitempty,max=256"`
	Status    *types.Status    `json:"status,omitempty" validate:"omitempty,oneof=0 1"`
	Remark    *string          `json:"remark,omitempty" validate:"omitempty,max=256"`
}

func (r *LLMUpdate) apply(m *models.LLM) {
	set(&m.Provider, r.Provider)
	set(&m.ModelName, r.ModelName)
	set(&m.ModelType, r.ModelType)
	set(&m.APIKey, r.APIKey)
	set(&m.APIURL, r.APIURL)
	set(&m.Status, r.Status)
	if r.Remark != nil {
		m.Remark = r.Remark
	}
}

func set[V any](dst *V, v *V) {
	if v != nil {
		*dst = *v
	}
}
