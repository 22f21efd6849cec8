package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/paybridge-io/paybridge/internal/events"
	"github.com/paybridge-io/paybridge/internal/server"
)

// maxWebhookBody is the payload bound from Stripe's webhook integration
// sample.
const maxWebhookBody = 65536

// Webhook verifies an inbound processor event and relays payment successes
// downstream. Every verified event is acknowledged with 200 regardless of
// type or forwarding outcome; only verification failures return an error
// status, so the processor retries those.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	// The raw bytes must reach the verifier exactly as received. Parsing and
	// re-serializing first would break the signature.
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.logger.Warn("webhook body too large", "limit", maxWebhookBody)
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "unable to read request body", http.StatusBadRequest)
		return
	}

	event, err := h.verifier.Verify(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook verification failed", "err", err)
		http.Error(w, "webhook signature verification failed", http.StatusBadRequest)
		return
	}

	payload, ok, err := events.Transform(event)
	switch {
	case err != nil:
		// Verified but undecodable: acknowledge so the processor does not
		// retry a payload we can never parse.
		h.logger.Error("event transform failed", "event", event.ID, "type", event.Type, "err", err)
	case ok:
		data, merr := json.Marshal(payload)
		if merr != nil {
			h.logger.Error("payload marshal failed", "event", event.ID, "err", merr)
			break
		}
		// Delivery is awaited (bounded by the forwarder's timeout) but its
		// outcome never changes the acknowledgment below.
		h.forwarder.Forward(r.Context(), data)
	default:
		h.logger.Debug("ignoring event type", "event", event.ID, "type", event.Type)
	}

	server.JSON(w, http.StatusOK, map[string]bool{"received": true})
}
