// Package forward delivers forwarding payloads to the downstream automation
// endpoint, best-effort: one POST, failures logged and swallowed.
package forward

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 5 * time.Second

// maxDeliveryRecords caps the in-memory delivery history.
const maxDeliveryRecords = 1000

// Delivery records one delivery attempt for inspection in tests and
// debugging. Records are not durable.
type Delivery struct {
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	Error      string    `json:"error,omitempty"`
	Signed     bool      `json:"signed"`
	Timestamp  time.Time `json:"timestamp"`
}

// Forwarder posts payloads to a fixed downstream URL. There is no retry, no
// queue, and no durability guarantee; loss on downstream unavailability is an
// accepted tradeoff.
type Forwarder struct {
	url    string
	signer Signer
	logger *slog.Logger
	client *http.Client

	mu         sync.Mutex
	deliveries []Delivery
}

// Options configures a Forwarder.
type Options struct {
	URL     string
	Signer  Signer
	Logger  *slog.Logger
	Timeout time.Duration
}

// New creates a Forwarder. An empty URL yields a forwarder that skips
// delivery entirely.
func New(opts Options) *Forwarder {
	if opts.Signer == nil {
		opts.Signer = Unsigned{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Forwarder{
		url:    opts.URL,
		signer: opts.Signer,
		logger: opts.Logger,
		client: &http.Client{Timeout: opts.Timeout},
	}
}

// Forward delivers payload once. Every failure is logged and swallowed so the
// outcome can never alter the response already owed to the event source.
func (f *Forwarder) Forward(ctx context.Context, payload []byte) {
	if f.url == "" {
		f.logger.Debug("no forward URL configured, skipping delivery")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(payload))
	if err != nil {
		f.logger.Error("forwarding request build failed", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	d := Delivery{URL: f.url, Timestamp: time.Now()}
	if v, ok := f.signer.Sign(payload); ok {
		req.Header.Set(SignatureHeader, v)
		d.Signed = true
	}

	resp, err := f.client.Do(req)
	if err != nil {
		d.Error = err.Error()
		f.logger.Error("forwarding failed", "url", f.url, "err", err)
		f.record(d)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	d.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Error("forwarding rejected downstream", "url", f.url, "status", resp.StatusCode)
	} else {
		f.logger.Info("forwarded payment event", "url", f.url, "status", resp.StatusCode, "signed", d.Signed)
	}
	f.record(d)
}

func (f *Forwarder) record(d Delivery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.deliveries) >= maxDeliveryRecords {
		f.deliveries = f.deliveries[1:]
	}
	f.deliveries = append(f.deliveries, d)
}

// Deliveries returns a copy of all recorded delivery attempts.
func (f *Forwarder) Deliveries() []Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Delivery, len(f.deliveries))
	copy(out, f.deliveries)
	return out
}
