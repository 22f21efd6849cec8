package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/paybridge-io/paybridge/internal/amount"
	"github.com/paybridge-io/paybridge/internal/payments"
	"github.com/paybridge-io/paybridge/internal/server"
)

type createIntentRequest struct {
	// Amount stays raw so that strings and other non-numeric values reach
	// amount.Parse instead of failing the envelope decode.
	Amount  json.RawMessage `json:"amount"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Phone   string          `json:"phone"`
	Message string          `json:"message"`
	Preset  bool            `json:"preset"`
}

type createIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// CreatePaymentIntent validates a charge request and creates a processor-side
// payment intent.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	amt, err := amount.Parse(req.Amount)
	if err == nil {
		err = amount.Validate(amt, req.Preset)
	}
	if err != nil {
		h.logger.Info("rejected charge amount", "amount", string(req.Amount), "preset", req.Preset, "reason", err)
		server.Error(w, http.StatusBadRequest, amountMessage(err))
		return
	}

	intent, err := h.gateway.CreateIntent(r.Context(), payments.IntentRequest{
		Amount:         amt,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Message:        req.Message,
		IdempotencyKey: r.Header.Get(server.IdempotencyKeyHeader),
	})
	if err != nil {
		// The gateway already logged the processor detail; the caller gets an
		// opaque failure.
		server.Error(w, http.StatusInternalServerError, "Unable to create payment intent")
		return
	}

	server.JSON(w, http.StatusOK, createIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	})
}

func amountMessage(err error) string {
	switch {
	case errors.Is(err, amount.ErrInvalidPreset):
		return "Invalid preset amount"
	case errors.Is(err, amount.ErrOutOfRange):
		return "Amount out of range"
	default:
		return "Invalid amount"
	}
}
