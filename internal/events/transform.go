package events

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
)

// Tag is the constant event discriminator on every forwarding payload.
const Tag = "payment.succeeded"

// succeededType is the only inbound event type that produces a forwarding
// payload. Every other verified type is acknowledged and dropped.
const succeededType = "payment_intent.succeeded"

// Customer is the customer block of a forwarding payload. Fields default to
// empty strings so downstream consumers always receive the same shape.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Payload is the canonical forwarding payload. Field order is fixed by the
// struct declaration, so serialization of the same event is byte-identical.
type Payload struct {
	Event           string   `json:"event"`
	Amount          int64    `json:"amount"`
	Currency        string   `json:"currency"`
	PaymentIntentID string   `json:"payment_intent_id"`
	Created         int64    `json:"created"`
	Customer        Customer `json:"customer"`
}

// Transform maps a verified event to a forwarding payload. The boolean is
// false for event types this service acknowledges but does not forward; that
// filter is deliberate, not an error. Transform must only ever be called with
// an event returned by Verifier.Verify.
func Transform(event stripe.Event) (*Payload, bool, error) {
	if event.Type != succeededType {
		return nil, false, nil
	}
	if event.Data == nil {
		return nil, false, fmt.Errorf("event %s has no data object", event.ID)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, false, fmt.Errorf("decoding payment intent from event %s: %w", event.ID, err)
	}

	return &Payload{
		Event:           Tag,
		Amount:          pi.Amount,
		Currency:        string(pi.Currency),
		PaymentIntentID: pi.ID,
		Created:         pi.Created,
		Customer: Customer{
			Name:  pi.Metadata["name"],
			Email: pi.Metadata["email"],
			Phone: pi.Metadata["phone"],
		},
	}, true, nil
}
