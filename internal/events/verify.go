// Package events verifies inbound Stripe webhook events and shapes verified
// payment successes into the canonical forwarding payload.
package events

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// ErrSignatureInvalid is returned for any authenticity failure: bad or
// malformed signature header, wrong secret, or a tampered body. Callers must
// respond non-2xx so the processor retries.
var ErrSignatureInvalid = errors.New("webhook signature invalid")

// Verifier checks event authenticity against the endpoint's verification
// secret. This is the single security boundary: no later stage re-validates.
type Verifier struct {
	secret string
}

// NewVerifier creates a Verifier. An empty secret yields a verifier that
// rejects everything, so an unconfigured endpoint fails closed.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify reconstructs the event from the raw request bytes and the
// stripe-signature header. The bytes must be exactly as received; a
// re-serialized body would not verify because JSON serialization is not
// canonical. Clock-skew tolerance and multi-signature headers follow
// Stripe's published scheme via the SDK.
func (v *Verifier) Verify(rawBody []byte, sigHeader string) (stripe.Event, error) {
	if v.secret == "" {
		return stripe.Event{}, fmt.Errorf("%w: no verification secret configured", ErrSignatureInvalid)
	}
	event, err := webhook.ConstructEventWithOptions(rawBody, sigHeader, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return event, nil
}
