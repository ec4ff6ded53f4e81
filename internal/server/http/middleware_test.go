package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/helixir/journal-service/internal/observability"
)

func TestCorrelationIDMiddleware_UsesExistingHeader(t *testing.T) {
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := observability.CorrelationIDFromContext(r.Context())
		if cid != "test-correlation-123" {
			t.Errorf("expected correlation ID test-correlation-123, got %s", cid)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Correlation-ID", "test-correlation-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get("X-Correlation-ID") != "test-correlation-123" {
		t.Errorf("expected X-Correlation-ID header to be set")
	}
}

func TestCorrelationIDMiddleware_GeneratesIfMissing(t *testing.T) {
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := observability.CorrelationIDFromContext(r.Context())
		if cid == "" {
			t.Error("expected non-empty correlation ID")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected X-Correlation-ID header to be set")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := rateLimitMiddleware(newClientLimiters(1e-9, 1))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/hello", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/hello", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimit_PerClientIP(t *testing.T) {
	s := NewServer(Config{RateLimitRPS: 0.0001, RateLimitBurst: 1}, Dependencies{
		Manuscripts: &mockManuscriptRepo{},
		People:      &mockPersonRepo{},
		Texts:       &mockTextRepo{},
		Health:      fakeHealth{},
	}, zerolog.Nop())

	fromAddr := func(addr string) *http.Request {
		req := httptest.NewRequest("GET", "/hello", nil)
		req.RemoteAddr = addr
		return req
	}
	fromForwarded := func(ip string) *http.Request {
		req := httptest.NewRequest("GET", "/hello", nil)
		req.RemoteAddr = "192.0.2.50:4000"
		req.Header.Set("X-Forwarded-For", ip)
		return req
	}

	if rr := serveHTTP(s, fromAddr("10.0.0.1:5000")); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for 10.0.0.1, got %d", rr.Code)
	}
	if rr := serveHTTP(s, fromAddr("10.0.0.2:5000")); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for 10.0.0.2, got %d", rr.Code)
	}
	// A new source port is still the same client.
	if rr := serveHTTP(s, fromAddr("10.0.0.1:5001")); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for repeat 10.0.0.1, got %d", rr.Code)
	}

	// Forwarded clients behind one proxy get their own buckets.
	if rr := serveHTTP(s, fromForwarded("203.0.113.7")); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for 203.0.113.7, got %d", rr.Code)
	}
	if rr := serveHTTP(s, fromForwarded("203.0.113.8")); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for 203.0.113.8, got %d", rr.Code)
	}
	if rr := serveHTTP(s, fromForwarded("203.0.113.7")); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for repeat 203.0.113.7, got %d", rr.Code)
	}
}

func TestClientLimiters_EvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiters := newClientLimiters(1e-9, 1)
	limiters.now = func() time.Time { return now }

	if !limiters.Allow("10.0.0.1") {
		t.Fatal("expected first request to pass")
	}
	if limiters.Allow("10.0.0.1") {
		t.Fatal("expected bucket to be empty")
	}
	if got := limiters.Len(); got != 1 {
		t.Fatalf("expected 1 tracked client, got %d", got)
	}

	now = now.Add(clientLimiterTTL + time.Second)
	if !limiters.Allow("10.0.0.2") {
		t.Fatal("expected new client to pass")
	}
	if got := limiters.Len(); got != 1 {
		t.Errorf("expected idle client to be evicted, tracking %d", got)
	}
	if !limiters.Allow("10.0.0.1") {
		t.Error("expected evicted client to start with a fresh bucket")
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"10.0.0.1:5000", "10.0.0.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"10.0.0.1", "10.0.0.1"},
	}
	for _, tc := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = tc.remoteAddr
		if got := clientKey(req); got != tc.want {
			t.Errorf("clientKey(%q) = %q, want %q", tc.remoteAddr, got, tc.want)
		}
	}
}

func TestRateLimit_HealthExempt(t *testing.T) {
	s := NewServer(Config{RateLimitRPS: 0.0001, RateLimitBurst: 1}, Dependencies{
		Manuscripts: &mockManuscriptRepo{},
		People:      &mockPersonRepo{},
		Texts:       &mockTextRepo{},
		Health:      fakeHealth{},
	}, zerolog.Nop())

	serveHTTP(s, httptest.NewRequest("GET", "/hello", nil))
	if rr := serveHTTP(s, httptest.NewRequest("GET", "/hello", nil)); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr := serveHTTP(s, httptest.NewRequest("GET", "/healthz", nil)); rr.Code == http.StatusTooManyRequests {
		t.Fatal("health checks must not be rate limited")
	}
}

func TestMetricsMiddleware_RecordsRoutePattern(t *testing.T) {
	m := observability.NewMetrics("test_http_middleware")

	r := chi.NewRouter()
	r.Use(metricsMiddleware(m))
	r.Get("/manuscripts/{title}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, title := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/manuscripts/"+title, nil))
	}

	got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/manuscripts/{title}", "GET", "404"))
	if got != 2 {
		t.Errorf("expected 2 requests recorded under the route pattern, got %v", got)
	}
}

func TestMetricsMiddleware_NilMetrics(t *testing.T) {
	handler := metricsMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rr.Code)
	}
}

func TestCORS_AllowedOrigin(t *testing.T) {
	s := NewServer(Config{CORSAllowedOrigins: []string{"https://journal.example.com"}}, Dependencies{
		Manuscripts: &mockManuscriptRepo{},
		People:      &mockPersonRepo{},
		Texts:       &mockTextRepo{},
		Health:      fakeHealth{},
	}, zerolog.Nop())

	req := httptest.NewRequest("GET", "/hello", nil)
	req.Header.Set("Origin", "https://journal.example.com")
	rr := serveHTTP(s, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://journal.example.com" {
		t.Errorf("expected allowed origin echoed, got %q", got)
	}

	req = httptest.NewRequest("GET", "/hello", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = serveHTTP(s, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for unknown origin, got %q", got)
	}
}

func TestJSONContentTypeMiddleware(t *testing.T) {
	s := newTestHTTPServer(&mockManuscriptRepo{}, &mockPersonRepo{}, &mockTextRepo{})

	rr := serveHTTP(s, httptest.NewRequest("GET", "/hello", nil))

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
}
