// Package api implements the paybridge HTTP handlers.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paybridge-io/paybridge/internal/events"
	"github.com/paybridge-io/paybridge/internal/forward"
	"github.com/paybridge-io/paybridge/internal/payments"
	"github.com/paybridge-io/paybridge/internal/server"
)

// Handler holds all API handler state.
type Handler struct {
	gateway   payments.Gateway
	verifier  *events.Verifier
	forwarder *forward.Forwarder
	mw        *server.Middleware
	logger    *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(gw payments.Gateway, v *events.Verifier, f *forward.Forwarder, mw *server.Middleware, logger *slog.Logger) *Handler {
	return &Handler{
		gateway:   gw,
		verifier:  v,
		forwarder: f,
		mw:        mw,
		logger:    logger,
	}
}

// Routes mounts the service routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.With(h.mw.IdempotentReplay).Post("/create-payment-intent", h.CreatePaymentIntent)
	r.Post("/webhook", h.Webhook)
}

// Health is the liveness probe: no auth, no side effects.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	server.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
