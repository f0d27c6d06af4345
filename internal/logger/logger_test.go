package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("no log output")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return m
}

func TestSlogBridge_CarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "debug", Component: "api"}, &buf)
	l := NewSlog(&zl)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithRoute(ctx, "/api/chair/{id}")
	l.InfoContext(ctx, "served", "status", 200, "err", errors.New("boom"))

	m := decodeLine(t, &buf)
	if m["request_id"] != "req-1" {
		t.Fatalf("request_id=%v want req-1", m["request_id"])
	}
	if m["route"] != "/api/chair/{id}" {
		t.Fatalf("route=%v", m["route"])
	}
	if m["component"] != "api" {
		t.Fatalf("component=%v want api", m["component"])
	}
	if m["status"] != float64(200) {
		t.Fatalf("status=%v want 200", m["status"])
	}
	if m["err"] != "boom" {
		t.Fatalf("err=%v want boom", m["err"])
	}
	if m["msg"] != "served" || m["level"] != "info" {
		t.Fatalf("unexpected line: %v", m)
	}
}

func TestSlogBridge_LevelFilteringAndGroups(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "warn"}, &buf)
	l := NewSlog(&zl)

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	l.WithGroup("db").Warn("slow", "op", "search_chairs")
	m := decodeLine(t, &buf)
	if m["db.op"] != "search_chairs" {
		t.Fatalf("grouped key missing: %v", m)
	}

	// restore for other tests
	Build(Config{Level: "info"}, &bytes.Buffer{})
}

func TestWithRequestID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if id := RequestID(ctx); len(id) != 36 {
		t.Fatalf("expected uuid request id, got %q", id)
	}
}
