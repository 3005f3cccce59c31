package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestSlogBridge_CarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "debug", Component: "api"}, &buf)
	log := NewSlog(&zl)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithFormat(ctx, "SemiDynaEXE")
	ctx = WithOp(ctx, "forward")
	log.InfoContext(ctx, "transformed", "iterations", 3, "err", errors.New("boom"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("lines=%d want 1", len(lines))
	}
	got := lines[0]
	for k, want := range map[string]any{
		"request_id": "req-1",
		"format":     "SemiDynaEXE",
		"op":         "forward",
		"component":  "api",
		"msg":        "transformed",
		"level":      "info",
		"err":        "boom",
	} {
		if got[k] != want {
			t.Fatalf("%s=%v want %v (line %v)", k, got[k], want, got)
		}
	}
	if got["iterations"] != float64(3) {
		t.Fatalf("iterations=%v", got["iterations"])
	}
}

func TestSlogBridge_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "warn"}, &buf)
	log := NewSlog(&zl)

	log.Info("dropped")
	log.Warn("kept")
	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "kept" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestSlogBridge_GroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "info"}, &buf)
	log := NewSlog(&zl).WithGroup("grid").With("format", "TKY2JGD")

	log.Info("loaded", "entries", 12)
	got := decodeLines(t, &buf)[0]
	if got["grid.format"] != "TKY2JGD" || got["grid.entries"] != float64(12) {
		t.Fatalf("group keys missing: %v", got)
	}
}

func TestWithRequestID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if id := RequestID(ctx); len(id) != 16 {
		t.Fatalf("generated id=%q", id)
	}
}
