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

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// Status is the lifecycle flag shared by agents, llms and tools.
type Status int

const (
	StatusDisabled Status = 0
	StatusActive   Status = 1
)

var _ BaseEnum = StatusActive

func (s Status) IsValid() bool { return s == StatusDisabled || s == StatusActive }

func (s Status) Number() int {
	if !s.IsValid() {
		return IllegalValue
	}
	return int(s)
}

func (s Status) String() string { return s.Name() }

func (s Status) Name() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusActive:
		return "active"
	default:
		return IllegalName
	}
}

func (s Status) Desc() string {
	switch s {
	case StatusDisabled:
		return "not available for selection"
	case StatusActive:
		return "available for selection"
	default:
		return IllegalDesc
	}
}

// ModelType classifies an LLM. Stored as its numeric string ("1", "2", "3").
type ModelType string

const (
	ModelTypeBasic      ModelType = "1"
	ModelTypeThinking   ModelType = "2"
	ModelTypeMultimodal ModelType = "3"
)

var _ BaseEnum = ModelTypeBasic

func (m ModelType) IsValid() bool {
	switch m {
	case ModelTypeBasic, ModelTypeThinking, ModelTypeMultimodal:
		return true
	}
	return false
}

func (m ModelType) Number() int {
	switch m {
	case ModelTypeBasic:
		return 1
	case ModelTypeThinking:
		return 2
	case ModelTypeMultimodal:
		return 3
	default:
		return IllegalValue
	}
}

func (m ModelType) String() string { return string(m) }

func (m ModelType) Name() string {
	switch m {
	case ModelTypeBasic:
		return "basic"
	case ModelTypeThinking:
		return "thinking"
	case ModelTypeMultimodal:
		return "multimodal"
	default:
		return IllegalName
	}
}

func (m ModelType) Desc() string {
	switch m {
	case ModelTypeBasic:
		return "general chat completion model"
	case ModelTypeThinking:
		return "reasoning model"
	case ModelTypeMultimodal:
		return "model accepting image and text input"
	default:
		return IllegalDesc
	}
}
