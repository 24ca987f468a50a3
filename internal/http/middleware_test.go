package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(3)
	rl.now = func() time.Time { return clock }
	m := &securityMetrics{}

	for i := 0; i < 3; i++ {
		if !rl.allow("1.2.3.4", m) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("1.2.3.4", m) {
		t.Error("fourth request in the window should be limited")
	}
	if !rl.allow("5.6.7.8", m) {
		t.Error("other clients have their own budget")
	}
	if m.snapshot().RateLimitHits != 1 {
		t.Errorf("hits = %d", m.snapshot().RateLimitHits)
	}

	clock = clock.Add(time.Minute)
	if !rl.allow("1.2.3.4", m) {
		t.Error("a new window should reset the budget")
	}

	clock = clock.Add(11 * time.Minute)
	if n := rl.cleanupStaleEntries(); n != 2 {
		t.Errorf("cleanup removed %d, want 2", n)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	srv := newTestServer(t, Deps{})
	srv.limiter.perMinute = 1

	if rr := do(t, srv, http.MethodPost, "/api/incomes", `{"date":"2024-03-01","amount":1,"source":"Salary"}`, "application/json"); rr.Code != http.StatusCreated {
		t.Fatalf("first post = %d", rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/api/incomes", `{"date":"2024-03-01","amount":1,"source":"Salary"}`, "application/json")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "60" {
		t.Errorf("second post = %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/ledger", "", ""); rr.Code != http.StatusOK {
		t.Errorf("reads are not limited, got %d", rr.Code)
	}
	if srv.SecurityMetrics().RateLimitHits != 1 {
		t.Errorf("metrics = %+v", srv.SecurityMetrics())
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.9:1234", "", "203.0.113.9"},
		{"untrusted proxy ignored", "203.0.113.9:1234", "198.51.100.1", "203.0.113.9"},
		{"trusted proxy", "10.0.0.2:80", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"trusted proxy with junk", "127.0.0.1:80", "not-an-ip", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"normal", http.MethodGet, "/api/dashboard?date=2024-03-01", "Mozilla/5.0", false},
		{"path traversal", http.MethodGet, "/api/../.env", "Mozilla/5.0", true},
		{"scanner agent", http.MethodGet, "/api/ledger", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("User-Agent", tt.agent)
			if got := detectSuspiciousRequest(r, &securityMetrics{}); got != tt.want {
				t.Errorf("detectSuspiciousRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, Deps{})
	srv.cfg.CORSOrigin = "https://app.example.com"
	srv.Handler = srv.routes()

	req := httptest.NewRequest(http.MethodOptions, "/api/incomes", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight = %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Errorf("allow origin = %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
	if rr.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Errorf("allow credentials = %q", rr.Header().Get("Access-Control-Allow-Credentials"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/labels", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Errorf("simple request = %d, allow origin %q", rr.Code, rr.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/labels", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("foreign origin must not be allowed")
	}
}

func TestCORSDisabled(t *testing.T) {
	srv := newTestServer(t, Deps{})
	req := httptest.NewRequest(http.MethodGet, "/api/labels", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("allow origin = %q, want none", rr.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t, Deps{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req_fixed")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Header().Get("X-Request-ID") != "req_fixed" {
		t.Errorf("request id = %q", rr.Header().Get("X-Request-ID"))
	}
}
