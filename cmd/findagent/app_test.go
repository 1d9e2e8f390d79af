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

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/findagent/config"
	"github.com/tomoncle/findagent/database"
	"github.com/tomoncle/findagent/models"
)

const seedTools = `
INSERT INTO tool (name, description, tool_function, is_direct_return, status) VALUES ('web_search', 'search the web', 'web_search_function', false, 1);
INSERT INTO tool (name, description, tool_function, is_direct_return, status) VALUES ('calculator', 'evaluate expressions in {{.ENVIRONMENT}}', 'calculator_function', true, 1);
`

const seedLLM = `
INSERT INTO llm (provider, model_name, model_type, api_key, api_url, status) VALUES ('openai', 'gpt-4o', '3', 'sk-secret-key', 'https://api.openai.com/v1', 1);
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	sqlRoot := filepath.Join(dir, "sql")
	writeFile(t, filepath.Join(sqlRoot, "common", "001_tool.sql"), seedTools)
	writeFile(t, filepath.Join(sqlRoot, "environments", "test", "001_llm.sql"), seedLLM)

	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, `
app:
  environment: test
log:
  level: warn
pagination:
  default_page_size: 10
  max_page_size: 50
database:
  connection:
    type: sqlite
    dbname: `+filepath.Join(dir, "findagent.db")+`
  init:
    filepath: `+sqlRoot+`
`)
	t.Cleanup(func() { _ = database.CloseDB() })
	return cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"findagent"}, args...))
	return out.String(), err
}

type page[T any] struct {
	PageNum  int  `json:"page_num"`
	PageSize int  `json:"page_size"`
	Counts   int  `json:"counts"`
	Items    []*T `json:"items"`
}

func TestMigrateSeedList(t *testing.T) {
	cfg := setup(t)

	_, err := run(t, "--config", cfg, "migrate")
	require.NoError(t, err)

	_, err = run(t, "--config", cfg, "seed")
	require.NoError(t, err)

	out, err := run(t, "--config", cfg, "list", "--sort", "name:asc", "tools")
	require.NoError(t, err)
	var tools page[models.Tool]
	require.NoError(t, json.Unmarshal([]byte(out), &tools))
	assert.Equal(t, 2, tools.Counts)
	assert.Equal(t, 10, tools.PageSize)
	require.Len(t, tools.Items, 2)
	assert.Equal(t, "calculator", tools.Items[0].Name)
	assert.Equal(t, "evaluate expressions in test", tools.Items[0].Description)
	assert.True(t, tools.Items[0].IsDirectReturn)
	assert.Equal(t, "web_search", tools.Items[1].Name)

	out, err = run(t, "--config", cfg, "list", "--size", "500", "llms")
	require.NoError(t, err)
	var llms page[models.LLM]
	require.NoError(t, json.Unmarshal([]byte(out), &llms))
	assert.Equal(t, 50, llms.PageSize)
	require.Len(t, llms.Items, 1)
	assert.Equal(t, "gpt-4o", llms.Items[0].ModelName)
	assert.Equal(t, "sk-**********", llms.Items[0].APIKey)

	out, err = run(t, "--config", cfg, "list", "agents")
	require.NoError(t, err)
	var agents page[models.Agent]
	require.NoError(t, json.Unmarshal([]byte(out), &agents))
	assert.Zero(t, agents.Counts)
	assert.Empty(t, agents.Items)
}

func TestHealth(t *testing.T) {
	cfg := setup(t)

	out, err := run(t, "--config", cfg, "health")
	require.NoError(t, err)
	var status struct {
		Health database.HealthStatus `json:"health"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.Health.Healthy)
	assert.True(t, status.Health.Connected)
}

func TestListRejectsBadInput(t *testing.T) {
	cfg := setup(t)

	_, err := run(t, "--config", cfg, "list", "widgets")
	assert.ErrorContains(t, err, "unknown entity")

	_, err = run(t, "--config", cfg, "list", "--sort", "name:up", "tools")
	assert.ErrorContains(t, err, "--sort")
}

func TestLogLevelFlagOverridesConfig(t *testing.T) {
	cfg := setup(t)
	app := newApp()
	app.Writer = &bytes.Buffer{}
	require.NoError(t, app.Run([]string{"findagent", "--config", cfg, "--log-level", "debug"}))

	loaded, ok := app.Metadata[configKey].(*config.Config)
	require.True(t, ok)
	assert.Equal(t, "debug", loaded.Log.Level)
	assert.Equal(t, "test", loaded.Database.DataInitConfig.Environment)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "****", maskSecret("abcd"))
	assert.Equal(t, "sk-******", maskSecret("sk-abcdef"))
}
