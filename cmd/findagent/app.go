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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tomoncle/findagent/config"
	"github.com/tomoncle/findagent/database"
	"github.com/tomoncle/findagent/services"
	"github.com/tomoncle/findagent/types"
	"github.com/tomoncle/findagent/utils"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func newApp() *cli.App {
	return &cli.App{
		Name:     "findagent",
		Usage:    "Manage the agent, llm and tool catalog",
		Metadata: map[string]interface{}{},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultConfigFile,
				Usage:   "YAML configuration file",
				EnvVars: []string{"FINDAGENT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Log level (trace, debug, info, warn, error), overrides the configuration",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if lvl := c.String("log-level"); lvl != "" {
				cfg.Log.Level = lvl
			}
			cfg.ApplyLogging()
			c.App.Metadata[configKey] = cfg
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create tables and apply pending migrations",
				Action: runMigrate,
			},
			{
				Name:  "seed",
				Usage: "Execute the SQL seed files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "Seed environment directory, defaults to app.environment",
					},
				},
				Action: runSeed,
			},
			{
				Name:   "health",
				Usage:  "Connect and print the database health status",
				Action: runHealth,
			},
			{
				Name:      "list",
				Usage:     "Print one page of agents, llms or tools",
				ArgsUsage: "<agents|llms|tools>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Value: 1, Usage: "Page number"},
					&cli.IntFlag{Name: "size", Aliases: []string{"s"}, Usage: "Page size, defaults to pagination.default_page_size"},
					&cli.StringSliceFlag{Name: "sort", Usage: "Sort order as column[:asc|desc], repeatable"},
				},
				Action: runList,
			},
		},
	}
}

func appConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func connect(c *cli.Context, migrate bool) (func(), error) {
	if _, err := database.InitDatabaseWithOptions(appConfig(c).ConfigLoader(), migrate); err != nil {
		return nil, err
	}
	return func() {
		if err := database.CloseDB(); err != nil {
			log.WithError(err).Warn("close database")
		}
	}, nil
}

func runMigrate(c *cli.Context) error {
	start := time.Now()
	closeDB, err := connect(c, true)
	if err != nil {
		return err
	}
	defer closeDB()

	applied, err := database.NewMigrationManager(database.GetDB(), database.GetLogger(), appConfig(c).ConfigLoader()).
		GetAppliedMigrations(c.Context)
	if err != nil {
		return err
	}
	log.WithField("elapsed", utils.Elapsed(start)).Infof("%d migrations applied", len(applied))
	return nil
}

func runSeed(c *cli.Context) error {
	env := c.String("env")
	if env == "" {
		env = appConfig(c).Database.DataInitConfig.Environment
	}

	start := time.Now()
	closeDB, err := connect(c, false)
	if err != nil {
		return err
	}
	defer closeDB()

	rows, err := database.InitDataWithSQL(c.Context, env)
	if err != nil {
		return err
	}
	log.WithField("elapsed", utils.Elapsed(start)).Infof("seeded %s: %d rows affected", env, rows)
	return nil
}

func runHealth(c *cli.Context) error {
	closeDB, err := connect(c, false)
	if err != nil {
		return err
	}
	defer closeDB()

	return printJSON(c, struct {
		Health *database.HealthStatus `json:"health"`
		Stats  *database.DBStats      `json:"stats"`
	}{database.GetHealthStatus(c.Context), database.GetDatabaseStats()})
}

func runList(c *cli.Context) error {
	entity := strings.ToLower(c.Args().First())
	switch entity {
	case "agents", "llms", "tools":
	default:
		return fmt.Errorf("list: unknown entity %q, want agents, llms or tools", entity)
	}

	helper, err := pageHelper(c)
	if err != nil {
		return err
	}

	closeDB, err := connect(c, false)
	if err != nil {
		return err
	}
	defer closeDB()

	switch entity {
	case "agents":
		page, err := services.NewAgentService(nil).ListAgents(c.Context, helper)
		if err != nil {
			return err
		}
		return printJSON(c, page)
	case "llms":
		page, err := services.NewLLMService(nil).ListLLMs(c.Context, helper)
		if err != nil {
			return err
		}
		for _, llm := range page.Items {
			llm.APIKey = maskSecret(llm.APIKey)
		}
		return printJSON(c, page)
	default:
		page, err := services.NewToolService(nil).ListTools(c.Context, helper)
		if err != nil {
			return err
		}
		return printJSON(c, page)
	}
}

func pageHelper(c *cli.Context) (*types.PageHelper, error) {
	orders := make([]types.Order, 0, len(c.StringSlice("sort")))
	for _, s := range c.StringSlice("sort") {
		o, err := types.ParseOrder(s)
		if err != nil {
			return nil, fmt.Errorf("--sort %q: %w", s, err)
		}
		orders = append(orders, o)
	}

	pager := types.NewPager(c.Int("page"), c.Int("size"))
	appConfig(c).Pagination.Normalize(&pager)

	var sorter *types.Sorter
	if len(orders) > 0 {
		sorter = types.NewSorter(orders...)
	}
	return types.NewPageHelper(types.MatchAll{}, pager, sorter), nil
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func maskSecret(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:3]) + strings.Repeat("*", len(r)-3)
}
