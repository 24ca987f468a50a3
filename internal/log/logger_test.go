package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewJSONStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf, Component: ComponentLedger})
	l.Info("hello", FieldRecordID, "42")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}
	if entry[FieldComponent] != ComponentLedger || entry[FieldRecordID] != "42" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}
}

func TestLogErrorIncludesFields(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf, Component: ComponentImport}))
	sl.LogError(context.Background(), "fetch failed", errors.New("boom"), OpImport, nil)
	out := buf.String()
	for _, want := range []string{"fetch failed", "error=boom", "operation=import", "component=import"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %s", got.Component())
	}
	l := Discard().WithComponent(ComponentHTTP)
	req := httptest.NewRequest("GET", "/", nil)
	var seen *Logger
	h := Middleware(l)(httpHandlerFunc(func(ctx context.Context) { seen = FromContext(ctx) }))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == nil || seen.Component() != ComponentHTTP {
		t.Fatalf("logger not propagated")
	}
}
