/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCompactHandlerOutput(t *testing.T) {
	var sb strings.Builder
	h := &compactHandler{w: &sb, level: slog.LevelInfo}
	l := slog.New(h).With(slog.String("component", "storage"))
	l.Info("document saved", slog.String("id", "m1"))
	out := sb.String()
	if !strings.Contains(out, "INF document saved") {
		t.Fatalf("missing level/message in output: %q", out)
	}
	if !strings.Contains(out, "component=storage") || !strings.Contains(out, "id=m1") {
		t.Fatalf("missing attrs in output: %q", out)
	}
}

func TestCompactHandlerLevelFilter(t *testing.T) {
	h := &compactHandler{w: &strings.Builder{}, level: slog.LevelWarn}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be filtered at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should pass at warn level")
	}
}

func TestWithComponentAndOperation(t *testing.T) {
	Init(Options{Level: "error", Format: "console"})
	l := WithOperation(WithComponent("studio"), "load")
	if l == nil {
		t.Fatalf("expected logger")
	}
}
