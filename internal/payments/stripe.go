package payments

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	client *client.API
	logger *slog.Logger
}

// NewStripeGateway creates a gateway authenticated with the given secret key.
func NewStripeGateway(apiKey string, logger *slog.Logger) *StripeGateway {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeGateway{client: sc, logger: logger}
}

// CreateIntent creates a PaymentIntent with automatic payment-method
// negotiation and an idempotency key. Free-text fields are truncated and
// attached as metadata so the success webhook can carry them downstream.
func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(key)
	params.AddMetadata("name", truncate(req.Name, MaxNameLen))
	params.AddMetadata("email", truncate(req.Email, MaxEmailLen))
	params.AddMetadata("phone", truncate(req.Phone, MaxPhoneLen))
	params.AddMetadata("message", truncate(req.Message, MaxMessageLen))

	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		g.logStripeError(err)
		return nil, ErrUpstream
	}

	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// logStripeError records full processor error detail server-side. The caller
// only ever sees ErrUpstream.
func (g *StripeGateway) logStripeError(err error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		g.logger.Error("payment intent creation failed",
			"type", stripeErr.Type,
			"code", stripeErr.Code,
			"status", stripeErr.HTTPStatusCode,
			"msg", stripeErr.Msg,
		)
		return
	}
	g.logger.Error("payment intent creation failed", "err", err)
}
