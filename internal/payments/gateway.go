// Package payments creates processor-side payment intents for validated
// storefront requests.
package payments

import (
	"context"
	"errors"
	"unicode/utf8"
)

// Currency is fixed; the storefront charges in a single currency.
const Currency = "usd"

// Metadata length caps applied before attaching request fields to the
// intent. Stripe rejects oversized metadata values, and capping also bounds
// exposure of oversized input.
const (
	MaxNameLen    = 120
	MaxEmailLen   = 200
	MaxPhoneLen   = 50
	MaxMessageLen = 300
)

// ErrUpstream is the only error the gateway surfaces. Processor error detail
// is logged server-side and never relayed to the external caller.
var ErrUpstream = errors.New("payment processor request failed")

// IntentRequest is a creation request whose amount has already been
// validated.
type IntentRequest struct {
	Amount  int64
	Name    string
	Email   string
	Phone   string
	Message string

	// IdempotencyKey is client-supplied; the gateway generates one when
	// empty so repeated identical calls cannot double-charge.
	IdempotencyKey string
}

// Intent is the client-facing handle returned by the processor. It is opaque
// and never stored locally.
type Intent struct {
	ID           string
	ClientSecret string
}

// Gateway creates payment intents with the processor.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}

// truncate caps s at max characters.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
