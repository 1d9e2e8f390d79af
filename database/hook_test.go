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
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

func init() {
	color.NoColor = true
}

type recordingLogger struct {
	nopLogger
	warnings []string
}

func (l *recordingLogger) Warn(msg string, _ ...interface{}) { l.warnings = append(l.warnings, msg) }

func queryEvent(query string, took time.Duration, err error) *bun.QueryEvent {
	return &bun.QueryEvent{Query: query, StartTime: time.Now().Add(-took), Err: err}
}

func TestQueryHook(t *testing.T) {
	var buf bytes.Buffer
	h := NewQueryHook(WithQueryHookWriter(&buf))

	h.AfterQuery(context.Background(), queryEvent("SELECT 1", time.Millisecond, nil))
	assert.Empty(t, buf.String(), "successful queries need verbose")

	h.AfterQuery(context.Background(), queryEvent("SELECT * FROM nope", time.Millisecond, errors.New("no such table: nope")))
	assert.Contains(t, buf.String(), "[BUN]")
	assert.Contains(t, buf.String(), "no such table")

	buf.Reset()
	h = NewQueryHook(WithQueryHookWriter(&buf), WithQueryHookVerbose(true))
	h.AfterQuery(context.Background(), queryEvent("SELECT 1", time.Millisecond, nil))
	assert.Contains(t, buf.String(), "SELECT 1")

	buf.Reset()
	EnableBunSqlSilent(true)
	h.AfterQuery(context.Background(), queryEvent("SELECT 2", time.Millisecond, nil))
	EnableBunSqlSilent(false)
	assert.Empty(t, buf.String())
}

func TestQueryHookFromEnv(t *testing.T) {
	var buf bytes.Buffer
	h := NewQueryHook(WithQueryHookWriter(&buf), WithQueryHookVerbose(true), QueryHookFromEnv("FINDAGENT_TEST_BUNDEBUG"))

	t.Setenv("FINDAGENT_TEST_BUNDEBUG", "0")
	h.AfterQuery(context.Background(), queryEvent("SELECT 1", time.Millisecond, nil))
	assert.Empty(t, buf.String())

	t.Setenv("FINDAGENT_TEST_BUNDEBUG", "2")
	h.AfterQuery(context.Background(), queryEvent("SELECT 1", time.Millisecond, nil))
	assert.Contains(t, buf.String(), "SELECT 1")
}

func TestSlowQueryHook(t *testing.T) {
	logger := &recordingLogger{}
	var buf bytes.Buffer
	h := NewSlowQueryHook(50*time.Millisecond, logger).WithWriter(&buf)

	h.AfterQuery(context.Background(), queryEvent("SELECT fast", time.Millisecond, nil))
	h.AfterQuery(context.Background(), queryEvent("SELECT failed", time.Second, errors.New("x")))
	assert.Empty(t, logger.warnings)

	h.AfterQuery(context.Background(), queryEvent("SELECT slow", time.Second, nil))
	assert.Len(t, logger.warnings, 1)
	assert.Contains(t, buf.String(), "[BUN_SLOW]")

	t.Setenv("BUNDEBUG_SLOW", "0")
	h.AfterQuery(context.Background(), queryEvent("SELECT slow", time.Second, nil))
	assert.Len(t, logger.warnings, 1)
}
