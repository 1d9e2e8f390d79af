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

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PathFormat selects how the caller location is rendered.
type PathFormat int

const (
	// PathFormatCompact abbreviates directories of the module relative path to fit CallerWidth.
	PathFormatCompact PathFormat = iota
	PathFormatFilenameOnly
	PathFormatRelative
)

const (
	ansiReset   = "\x1b[0m"
	ansiFaint   = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiYellow  = "\x1b[33m"
	ansiGreen   = "\x1b[32m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

// Log4jColorFormatter renders
//
//	2025-01-02 15:04:05.000    INFO 4242   - [main]   DATABASE  database.manager.go:93 : message k=v
type Log4jColorFormatter struct {
	LoggerName  string
	PathFmt     PathFormat
	Color       bool
	NameWidth   int
	CallerWidth int
}

func (f *Log4jColorFormatter) paint(s, code string) string {
	if !f.Color {
		return s
	}
	return code + s + ansiReset
}

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(entry.Time.Format(timestampFormat))
	b.WriteByte(' ')
	b.WriteString(f.paint(fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String())), levelColor(entry.Level)))
	b.WriteByte(' ')
	b.WriteString(f.paint(fmt.Sprintf("%-6d", os.Getpid()), ansiMagenta))
	b.WriteString(" - ")
	b.WriteString(f.paint("[main]", ansiMagenta))
	b.WriteByte(' ')
	b.WriteString(f.paint(padLeftRunes(limitRunes(f.LoggerName, f.NameWidth), f.NameWidth), ansiCyan))
	if entry.Caller != nil {
		b.WriteString(f.paint(" "+padLeftRunes(f.caller(entry.Caller.File, entry.Caller.Line), f.CallerWidth), ansiFaint))
	}
	b.WriteString(" ")
	b.WriteString(f.paint(":", ansiFaint))
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func (f *Log4jColorFormatter) caller(file string, line int) string {
	lineStr := strconv.Itoa(line)
	switch f.PathFmt {
	case PathFormatFilenameOnly:
		return filepath.Base(file) + ":" + lineStr
	case PathFormatRelative:
		return moduleRelative(filepath.ToSlash(file)) + ":" + lineStr
	default:
		rel := moduleRelative(filepath.ToSlash(file))
		if f.CallerWidth > 0 {
			rel = compactPath(rel, f.CallerWidth-len(lineStr)-1)
		}
		return rel + ":" + lineStr
	}
}

// JSONLogFormatter renders one JSON object per line.
type JSONLogFormatter struct {
	LoggerName string
	PathFmt    PathFormat
}

type jsonRecord struct {
	Time    string                 `json:"time"`
	Level   string                 `json:"level"`
	Logger  string                 `json:"logger"`
	Caller  string                 `json:"caller,omitempty"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	rec := jsonRecord{
		Time:    entry.Time.Format(timestampFormat),
		Level:   entry.Level.String(),
		Logger:  f.LoggerName,
		Message: entry.Message,
	}
	if entry.Caller != nil {
		file := moduleRelative(filepath.ToSlash(entry.Caller.File))
		if f.PathFmt == PathFormatFilenameOnly {
			file = filepath.Base(file)
		}
		rec.Caller = file + ":" + strconv.Itoa(entry.Caller.Line)
	}
	if len(entry.Data) > 0 {
		rec.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			rec.Fields[k] = v
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func levelColor(level logrus.Level) string {
	switch level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return ansiRed
	case logrus.WarnLevel:
		return ansiYellow
	case logrus.InfoLevel:
		return ansiGreen
	case logrus.DebugLevel:
		return ansiBlue
	default:
		return ansiMagenta
	}
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	moduleRootOnce sync.Once
	moduleRoot     string
	mainModuleOnce sync.Once
	mainModuleBase string
)

// moduleRelative trims everything up to the directory holding go.mod.
func moduleRelative(p string) string {
	moduleRootOnce.Do(func() { moduleRoot = findModuleRoot(p) })
	if moduleRoot != "" && strings.HasPrefix(p, moduleRoot+"/") {
		return strings.TrimPrefix(p, moduleRoot+"/")
	}
	mainModuleOnce.Do(func() {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Path != "" {
			mainModuleBase = filepath.Base(info.Main.Path)
		}
	})
	if mainModuleBase != "" {
		if idx := strings.Index(p, mainModuleBase+"/"); idx >= 0 {
			return p[idx+len(mainModuleBase)+1:]
		}
	}
	return p
}

func findModuleRoot(p string) string {
	for dir := filepath.Dir(p); ; {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.ToSlash(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// compactPath joins path segments with dots and shortens directory names to
// their first letter until the result fits max. The filename is kept whole
// unless nothing else is left to shorten.
func compactPath(p string, max int) string {
	if max <= 0 {
		return ""
	}
	parts := strings.Split(p, "/")
	file := parts[len(parts)-1]
	dirs := append([]string(nil), parts[:len(parts)-1]...)

	join := func() string {
		if len(dirs) == 0 {
			return file
		}
		return strings.Join(dirs, ".") + "." + file
	}
	out := join()
	for i := 0; len(out) > max && i < len(dirs); i++ {
		if r := []rune(dirs[i]); len(r) > 1 {
			dirs[i] = string(r[0])
		}
		out = join()
	}
	if r := []rune(out); len(r) > max {
		return string(r[len(r)-max:])
	}
	return out
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

func padLeftRunes(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(r)) + s
}

// Elapsed formats a duration the way log lines print it.
func Elapsed(start time.Time) string {
	return time.Since(start).Round(time.Microsecond).String()
}
