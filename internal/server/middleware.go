package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/paybridge-io/paybridge/internal/config"
)

// IdempotencyKeyHeader is the client-supplied idempotency token header on the
// creation path.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// RequestLogEntry captures details of one handled request.
type RequestLogEntry struct {
	Timestamp  time.Time     `json:"timestamp"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	StatusCode int           `json:"status_code"`
	Duration   time.Duration `json:"duration_ms"`
}

// RequestLog is a thread-safe ring buffer of recent requests.
type RequestLog struct {
	mu      sync.RWMutex
	entries []RequestLogEntry
	maxSize int
}

// NewRequestLog creates a request log with the given max size.
func NewRequestLog(maxSize int) *RequestLog {
	return &RequestLog{
		entries: make([]RequestLogEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add appends an entry, evicting the oldest if at capacity.
func (rl *RequestLog) Add(entry RequestLogEntry) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.entries) >= rl.maxSize {
		rl.entries = rl.entries[1:]
	}
	rl.entries = append(rl.entries, entry)
}

// Entries returns a copy of all log entries.
func (rl *RequestLog) Entries() []RequestLogEntry {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	out := make([]RequestLogEntry, len(rl.entries))
	copy(out, rl.entries)
	return out
}

// IdempotencyTracker caches successful creation responses by idempotency
// key, bounded at maxSize entries with oldest-first eviction.
type IdempotencyTracker struct {
	mu      sync.RWMutex
	entries map[string]idempotencyEntry
	maxSize int
}

type idempotencyEntry struct {
	StatusCode int
	Body       []byte
	CreatedAt  time.Time
}

// NewIdempotencyTracker creates a tracker holding at most maxSize entries.
func NewIdempotencyTracker(maxSize int) *IdempotencyTracker {
	return &IdempotencyTracker{
		entries: make(map[string]idempotencyEntry),
		maxSize: maxSize,
	}
}

// Check returns the cached response for key, or false if not seen.
func (it *IdempotencyTracker) Check(key string) (int, []byte, bool) {
	it.mu.RLock()
	defer it.mu.RUnlock()
	if e, ok := it.entries[key]; ok {
		return e.StatusCode, e.Body, true
	}
	return 0, nil, false
}

// Store caches a response for key, evicting the oldest entry at capacity.
func (it *IdempotencyTracker) Store(key string, statusCode int, body []byte) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if _, exists := it.entries[key]; !exists && len(it.entries) >= it.maxSize {
		var oldestKey string
		var oldest time.Time
		for k, e := range it.entries {
			if oldestKey == "" || e.CreatedAt.Before(oldest) {
				oldestKey, oldest = k, e.CreatedAt
			}
		}
		delete(it.entries, oldestKey)
	}
	it.entries[key] = idempotencyEntry{
		StatusCode: statusCode,
		Body:       body,
		CreatedAt:  time.Now(),
	}
}

// Middleware provides the shared middleware for the service.
type Middleware struct {
	cfg        *config.Config
	logger     *slog.Logger
	allowed    map[string]struct{}
	ReqLog     *RequestLog
	Idempotent *IdempotencyTracker
}

// NewMiddleware creates a Middleware instance.
func NewMiddleware(cfg *config.Config, logger *slog.Logger) *Middleware {
	var allowed map[string]struct{}
	if len(cfg.AllowedOrigins) > 0 {
		allowed = make(map[string]struct{}, len(cfg.AllowedOrigins))
		for _, o := range cfg.AllowedOrigins {
			allowed[o] = struct{}{}
		}
	}
	return &Middleware{
		cfg:        cfg,
		logger:     logger,
		allowed:    allowed,
		ReqLog:     NewRequestLog(1000),
		Idempotent: NewIdempotencyTracker(10000),
	}
}

// CORS enforces the configured origin allow-list. With no list configured the
// service is permissive. A disallowed Origin is rejected before any handler
// runs.
func (m *Middleware) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		switch {
		case m.allowed == nil:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			if _, ok := m.allowed[origin]; !ok {
				m.logger.Info("rejected disallowed origin", "origin", origin, "path", r.URL.Path)
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, "+IdempotencyKeyHeader)
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// RequestLog records request details in the ring buffer and, under verbose
// config, logs each request.
func (m *Middleware) RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: 200}

		next.ServeHTTP(rec, r)

		m.ReqLog.Add(RequestLogEntry{
			Timestamp:  start,
			Method:     r.Method,
			Path:       r.URL.Path,
			StatusCode: rec.statusCode,
			Duration:   time.Since(start),
		})

		if m.cfg.Verbose {
			m.logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.statusCode,
				"duration", time.Since(start),
			)
		}
	})
}

// responseRecorder captures status and body for idempotency caching.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// IdempotentReplay replays cached responses for POSTs carrying an idempotency
// key. Only 2xx responses are cached: the processor holds the authoritative
// idempotency guarantee, this cache just short-circuits obvious replays, and
// caching a transient failure would pin it.
func (m *Middleware) IdempotentReplay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		if status, body, ok := m.Idempotent.Check(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(status)
			w.Write(body)
			return
		}

		rec := &responseRecorder{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(rec, r)
		if rec.statusCode >= 200 && rec.statusCode < 300 {
			m.Idempotent.Store(key, rec.statusCode, rec.body.Bytes())
		}
	})
}
