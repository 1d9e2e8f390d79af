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

package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/findagent/database"
	"github.com/tomoncle/findagent/services"
	"github.com/tomoncle/findagent/types"
)

func TestServicesFollowReopenedHandle(t *testing.T) {
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.DBName = filepath.Join(t.TempDir(), "reconnect.db")
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.DataInitConfig.Filepath = t.TempDir()

	_, err := database.InitDatabaseWithOptions(cfg, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })

	ctx := context.Background()
	svc := services.NewToolService(nil)
	_, err = svc.CreateTool(ctx, &services.ToolCreate{
		Name:         "web_search",
		Description:  "search the web",
		ToolFunction: "web_search_function",
		Status:       types.StatusActive,
	})
	require.NoError(t, err)

	before := database.GetDB()
	require.NoError(t, database.Reopen(ctx, database.GetDatabaseManager()))
	require.NotSame(t, before, database.GetDB())
	assert.Error(t, before.PingContext(ctx), "the replaced handle is closed")

	tools, err := svc.GetAllTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "web_search", tools[0].Name)
}
