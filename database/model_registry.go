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

package database

import (
	"reflect"
	"sort"
	"sync"
)

// Model is a bun model pointer, typically (*T)(nil), and the position of its
// table in creation order. Referenced tables need a lower Priority.
type Model struct {
	Instance interface{}
	Priority int
}

// ModelRegistry collects the models whose tables the migrations create.
type ModelRegistry struct {
	mu     sync.RWMutex
	models []Model
	seen   map[reflect.Type]struct{}
}

func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{seen: make(map[reflect.Type]struct{})}
}

// Register adds instance once per Go type; later registrations of the same type are ignored.
func (r *ModelRegistry) Register(instance interface{}, priority int) {
	typ := reflect.TypeOf(instance)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.seen[typ]; dup {
		return
	}
	r.seen[typ] = struct{}{}
	r.models = append(r.models, Model{Instance: instance, Priority: priority})
}

// Models returns the registered models by ascending priority, ties in registration order.
func (r *ModelRegistry) Models() []Model {
	r.mu.RLock()
	out := append([]Model(nil), r.models...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

func (r *ModelRegistry) Instances() []interface{} {
	models := r.Models()
	out := make([]interface{}, len(models))
	for i, m := range models {
		out[i] = m.Instance
	}
	return out
}

var defaultRegistry = NewModelRegistry()

// RegisterModel adds a model to the registry used by Connect and the migrations.
func RegisterModel(instance interface{}, priority int) {
	defaultRegistry.Register(instance, priority)
}

func RegisteredModels() []Model { return defaultRegistry.Models() }

func RegisteredModelInstances() []interface{} { return defaultRegistry.Instances() }
