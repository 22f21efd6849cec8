package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybridge-io/paybridge/internal/config"
)

func newTestMiddleware(cfg *config.Config) *Middleware {
	return NewMiddleware(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
}

func TestCORSPermissiveWithoutAllowList(t *testing.T) {
	mw := newTestMiddleware(&config.Config{})
	h := mw.CORS(okHandler())

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowListEnforced(t *testing.T) {
	mw := newTestMiddleware(&config.Config{AllowedOrigins: []string{"https://shop.example.com"}})
	h := mw.CORS(okHandler())

	// Allowed origin echoes back.
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	// Disallowed origin is rejected before the handler runs.
	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// No Origin header (curl, server-to-server) passes through.
	req = httptest.NewRequest("GET", "/health", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	mw := newTestMiddleware(&config.Config{})
	h := mw.CORS(okHandler())

	req := httptest.NewRequest("OPTIONS", "/create-payment-intent", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), IdempotencyKeyHeader)
}

func TestIdempotentReplayCachesSuccess(t *testing.T) {
	mw := newTestMiddleware(&config.Config{})
	calls := 0
	h := mw.IdempotentReplay(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		JSON(w, http.StatusOK, map[string]int{"call": calls})
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/create-payment-intent", nil)
		req.Header.Set(IdempotencyKeyHeader, "key-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	assert.Equal(t, http.StatusOK, first.Code)
	second := do()
	assert.Equal(t, 1, calls, "second call must be served from cache")
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotentReplaySkipsFailures(t *testing.T) {
	mw := newTestMiddleware(&config.Config{})
	calls := 0
	h := mw.IdempotentReplay(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		Error(w, http.StatusInternalServerError, "Unable to create payment intent")
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/create-payment-intent", nil)
		req.Header.Set(IdempotencyKeyHeader, "key-1")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, calls, "failed responses must not be cached")
}

func TestIdempotentReplayIgnoresKeylessRequests(t *testing.T) {
	mw := newTestMiddleware(&config.Config{})
	calls := 0
	h := mw.IdempotentReplay(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		JSON(w, http.StatusOK, nil)
	}))

	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/x", nil))
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotencyTrackerBounded(t *testing.T) {
	it := NewIdempotencyTracker(2)
	it.Store("k1", 200, []byte("a"))
	it.Store("k2", 200, []byte("b"))
	it.Store("k3", 200, []byte("c"))

	_, body, ok := it.Check("k3")
	require.True(t, ok, "newest entry must survive eviction")
	assert.Equal(t, []byte("c"), body)

	remaining := 0
	for _, k := range []string{"k1", "k2", "k3"} {
		if _, _, ok := it.Check(k); ok {
			remaining++
		}
	}
	assert.Equal(t, 2, remaining, "cache must not grow past its bound")

	// Re-storing an existing key must not evict anything.
	it.Store("k3", 200, []byte("c2"))
	_, _, ok = it.Check("k2")
	assert.True(t, ok)
}

func TestRequestLogRingBuffer(t *testing.T) {
	rl := NewRequestLog(2)
	rl.Add(RequestLogEntry{Path: "/a"})
	rl.Add(RequestLogEntry{Path: "/b"})
	rl.Add(RequestLogEntry{Path: "/c"})

	entries := rl.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "/b", entries[0].Path)
	assert.Equal(t, "/c", entries[1].Path)
}
