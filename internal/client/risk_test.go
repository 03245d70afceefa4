package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestRiskClient(baseURL string, attempts int) *RiskClient {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRiskClient(baseURL, time.Second, Policy{Attempts: attempts, Backoff: 0}, logger)
}

func TestIsRestricted_RestrictedTrader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/traders/bad-actor/restriction" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"trader_id":"bad-actor","restricted":true,"reason":"fraud hold"}`))
	}))
	defer srv.Close()

	c := newTestRiskClient(srv.URL, 1)
	restricted, err := c.IsRestricted(context.Background(), "bad-actor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !restricted {
		t.Error("expected restricted")
	}
}

func TestIsRestricted_UnknownTraderAllowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestRiskClient(srv.URL, 1)
	restricted, err := c.IsRestricted(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restricted {
		t.Error("404 must mean unrestricted")
	}
}

func TestIsRestricted_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"trader_id":"alice","restricted":true}`))
	}))
	defer srv.Close()

	c := newTestRiskClient(srv.URL, 3)
	restricted, err := c.IsRestricted(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !restricted {
		t.Error("expected restricted after retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestIsRestricted_FailsOpenAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestRiskClient(srv.URL, 2)
	restricted, err := c.IsRestricted(context.Background(), "alice")
	if err != nil {
		t.Fatalf("fail-open must not surface an error, got %v", err)
	}
	if restricted {
		t.Error("fail-open must allow the trader")
	}
}

func TestIsRestricted_FailsOpenOnUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately unreachable

	c := newTestRiskClient(srv.URL, 2)
	restricted, err := c.IsRestricted(context.Background(), "alice")
	if err != nil {
		t.Fatalf("fail-open must not surface an error, got %v", err)
	}
	if restricted {
		t.Error("fail-open must allow the trader")
	}
}

func TestNoopRiskChecker(t *testing.T) {
	restricted, err := NoopRiskChecker{}.IsRestricted(context.Background(), "anyone")
	if err != nil || restricted {
		t.Errorf("noop must always allow, got restricted=%v err=%v", restricted, err)
	}
}
