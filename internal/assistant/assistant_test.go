package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rupaiya/internal/core"
)

func fakeCompletions(t *testing.T, reply string, seen *[]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		*seen = append(*seen, body)

		w.Header().Set("Content-Type", "application/json")
		choices := "[]"
		if reply != "" {
			choices = `[{"index":0,"message":{"role":"assistant","content":` + quote(reply) + `},"finish_reason":"stop"}]`
		}
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","model":"m","choices":` + choices + `,"usage":{"total_tokens":7}}`))
	}))
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestClient_Ask(t *testing.T) {
	var seen []map[string]any
	srv := fakeCompletions(t, "You saved 60.00 in March.", &seen)
	defer srv.Close()

	c := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/", Model: "test-model"}, nil)
	snap := core.Ledger{Incomes: []core.Income{core.NewIncome("1", core.NewDate(2024, 3, 1), core.Cents(10000), "Salary", "")}}
	history := []Message{
		{Role: "assistant", Content: Greeting},
		{Role: "user", Content: "What did I earn in March?"},
		{Role: "assistant", Content: "You earned 100.00."},
	}

	got, err := c.Ask(context.Background(), snap, history, "How much did I save?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "You saved 60.00 in March." {
		t.Errorf("answer = %q", got)
	}

	if len(seen) != 1 {
		t.Fatalf("requests = %d", len(seen))
	}
	if seen[0]["model"] != "test-model" {
		t.Errorf("model = %v", seen[0]["model"])
	}
	msgs := seen[0]["messages"].([]any)
	if len(msgs) != 4 {
		t.Fatalf("messages = %d, want system, two history turns and question", len(msgs))
	}
	if first := msgs[1].(map[string]any); first["role"] != "user" || first["content"] != "What did I earn in March?" {
		t.Errorf("greeting should be dropped, first turn = %v", first)
	}
	system := msgs[0].(map[string]any)
	if system["role"] != "system" || !strings.Contains(system["content"].(string), `"source": "Salary"`) {
		t.Errorf("system prompt should embed the snapshot: %v", system["content"])
	}
	if last := msgs[3].(map[string]any); last["role"] != "user" || last["content"] != "How much did I save?" {
		t.Errorf("last message = %v", last)
	}
}

func TestClient_AskFallback(t *testing.T) {
	var seen []map[string]any
	srv := fakeCompletions(t, "", &seen)
	defer srv.Close()

	c := New(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	got, err := c.Ask(context.Background(), core.Ledger{}, nil, "hi")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != FallbackAnswer {
		t.Errorf("answer = %q, want fallback", got)
	}
	if seen[0]["model"] != DefaultModel {
		t.Errorf("model = %v, want default", seen[0]["model"])
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c := New(Config{}, nil)
	if c.Configured() {
		t.Error("client without key reports configured")
	}
	if _, err := c.Ask(context.Background(), core.Ledger{}, nil, "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Ask error = %v, want ErrNotConfigured", err)
	}
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	if _, err := c.Ask(context.Background(), core.Ledger{}, nil, "hi"); err == nil {
		t.Error("expected error from API")
	}
}

func TestSystemPrompt(t *testing.T) {
	today := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	p, err := SystemPrompt(core.Ledger{}, today)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p, "Today's date is Fri Mar 15 2024.") {
		t.Errorf("prompt missing date: %s", p)
	}
	if !strings.Contains(p, "FinPal") {
		t.Error("prompt missing persona")
	}
}
