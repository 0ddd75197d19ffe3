package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 5, slog.Default())
	defer stop()
	h := rl.middleware(okHandler)

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ask", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d within burst rejected with %d", i+1, w.Code)
		}
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 2, slog.Default())
	defer stop()
	h := rl.middleware(okHandler)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ask", nil)
		req.RemoteAddr = "10.0.0.2:5000"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst exhausted, got %d", last.Code)
	}
	if got := last.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want \"1\"", got)
	}
}

func TestRateLimiter_PerIPIsolation(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 1, slog.Default())
	defer stop()
	h := rl.middleware(okHandler)

	// Exhaust IP A's bucket.
	reqA := httptest.NewRequest(http.MethodGet, "/ask", nil)
	reqA.RemoteAddr = "10.0.0.3:5000"
	h.ServeHTTP(httptest.NewRecorder(), reqA)

	// IP B still has its own full bucket.
	reqB := httptest.NewRequest(http.MethodGet, "/ask", nil)
	reqB.RemoteAddr = "10.0.0.4:5000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, reqB)

	if w.Code != http.StatusOK {
		t.Errorf("IP B rejected with %d after IP A exhausted its bucket", w.Code)
	}
}

func TestRateLimiter_Eviction(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 1, slog.Default())
	defer stop()

	rl.getLimiter("10.0.0.5")
	rl.mu.Lock()
	rl.limiters["10.0.0.5"].lastSeen = time.Now().Add(-10 * time.Minute)
	rl.mu.Unlock()

	rl.evict()

	rl.mu.Lock()
	_, ok := rl.limiters["10.0.0.5"]
	rl.mu.Unlock()
	if ok {
		t.Error("stale limiter entry survived eviction")
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want string
	}{
		{"10.0.0.1:5000", "10.0.0.1"},
		{"[::1]:5000", "[::1]"},
		{"no-port", "no-port"},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.addr
		if got := clientIP(req); got != tc.want {
			t.Errorf("clientIP(%q) = %q, want %q", tc.addr, got, tc.want)
		}
	}
}
