package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubPinger is a configurable Pinger for readiness tests.
type stubPinger struct {
	name string
	err  error
}

func (p *stubPinger) Ping(_ context.Context) error { return p.err }
func (p *stubPinger) Name() string                 { return p.name }

func TestHandleReady_NoPingers(t *testing.T) {
	t.Parallel()

	s := newTestServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()

	s.handleReady(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with no pingers, got %d", w.Code)
	}
	var resp readyResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Ready {
		t.Error("ready = false with no pingers")
	}
}

func TestHandleReady_AllHealthy(t *testing.T) {
	t.Parallel()

	s := newTestServer(nil, nil, nil)
	s.pingers = []Pinger{
		&stubPinger{name: "qdrant"},
		&stubPinger{name: "embedder"},
	}
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()

	s.handleReady(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp readyResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Ready || len(resp.Checks) != 2 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleReady_DependencyDown(t *testing.T) {
	t.Parallel()

	s := newTestServer(nil, nil, nil)
	s.pingers = []Pinger{
		&stubPinger{name: "qdrant"},
		&stubPinger{name: "embedder", err: errors.New("connection refused")},
	}
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()

	s.handleReady(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var resp readyResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Ready {
		t.Error("ready = true with a failing dependency")
	}

	var failed *readyCheck
	for i := range resp.Checks {
		if resp.Checks[i].Name == "embedder" {
			failed = &resp.Checks[i]
		}
	}
	if failed == nil || failed.OK || failed.Error == "" {
		t.Errorf("embedder check = %+v", failed)
	}
}

func TestMultiPinger_FirstFailureWins(t *testing.T) {
	t.Parallel()

	mp := NewMultiPinger(
		&stubPinger{name: "a"},
		&stubPinger{name: "b", err: errors.New("down")},
		&stubPinger{name: "c", err: errors.New("also down")},
	)

	err := mp.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "b: down" {
		t.Errorf("error = %q, want the first failing dependency", got)
	}
}
