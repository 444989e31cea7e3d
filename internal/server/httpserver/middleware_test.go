package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/worldsnap-go/internal/telemetry/logger"
	"github.com/yndnr/worldsnap-go/internal/telemetry/metric"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler, mark("a"), mark("b"), mark("c")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "a,b,c" {
		t.Errorf("order = %v, want a,b,c", order)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 26 {
		t.Errorf("generated id %q should be a ULID", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("header = %q, context = %q", rec.Header().Get("X-Request-ID"), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-42")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "client-42" {
		t.Errorf("client id not kept: %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 100))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if len(seen) != 26 {
		t.Errorf("oversized client id should be replaced, got %q", seen)
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "info", Output: &buf})

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RequestID(nil), Recover(log))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshots", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["code"] != "WS-SYS-5000" || body["request_id"] == "" {
		t.Errorf("body = %v", body)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestAudit(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "info", Output: &buf})
	metrics := metric.NewRegistry()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /snapshots/{name}/restore", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := Chain(mux, RequestID(nil), Audit(log, metrics))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/snapshots/a/restore", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/snapshots/b/restore", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("POST", "POST /snapshots/{name}/restore", "404")); got != 2 {
		t.Errorf("pattern-labelled requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("unmatched requests = %v, want 1", got)
	}
	if !strings.Contains(buf.String(), "request completed with client error") {
		t.Errorf("4xx not logged as client error: %s", buf.String())
	}
}

func TestAudit_NilMetrics(t *testing.T) {
	h := Audit(logger.Discard(), nil)(okHandler)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{RPS: 0.001, Burst: 2, Exempt: []string{"/health"}})(okHandler)

	send := func(path, ip string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("/snapshots", "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, code)
		}
	}
	if code := send("/snapshots", "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want 429", code)
	}
	if code := send("/snapshots", "10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client limited: %d", code)
	}
	if code := send("/health", "10.0.0.1"); code != http.StatusOK {
		t.Errorf("exempt path limited: %d", code)
	}
}

func TestRateLimit_RetryAfter(t *testing.T) {
	if got := retryAfter(0.1); got != 10 {
		t.Errorf("retryAfter(0.1) = %d", got)
	}
	if got := retryAfter(5); got != 1 {
		t.Errorf("retryAfter(5) = %d", got)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://panel.example.com"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/snapshots", nil)
	req.Header.Set("Origin", "https://panel.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://panel.example.com" {
		t.Error("allowed origin not echoed")
	}

	req = httptest.NewRequest(http.MethodGet, "/snapshots", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("foreign origin allowed")
	}

	req = httptest.NewRequest(http.MethodOptions, "/snapshots", nil)
	req.Header.Set("Origin", "https://panel.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, "127.0.0.1:1", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": "5.6.7.8"}, "127.0.0.1:1", "5.6.7.8"},
		{"remote v6", nil, "[::1]:8080", "::1"},
		{"no port", nil, "9.9.9.9", "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
