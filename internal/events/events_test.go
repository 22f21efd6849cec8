package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/paybridge-io/paybridge/internal/events"
	"github.com/paybridge-io/paybridge/internal/testutil"
)

const testSecret = "whsec_test_secret"

func TestVerifyAcceptsSignedEvent(t *testing.T) {
	body := testutil.PaymentIntentEvent("payment_intent.succeeded", "pi_123", 5000, nil)
	header := testutil.StripeSignature(body, testSecret, time.Now())

	event, err := events.NewVerifier(testSecret).Verify(body, header)
	require.NoError(t, err)
	assert.EqualValues(t, "payment_intent.succeeded", event.Type)
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	body := testutil.PaymentIntentEvent("payment_intent.succeeded", "pi_123", 5000, nil)
	header := testutil.StripeSignature(body, testSecret, time.Now())
	v := events.NewVerifier(testSecret)

	// Flipping any single byte of the body must invalidate the signature.
	for _, i := range []int{0, len(body) / 2, len(body) - 1} {
		tampered := make([]byte, len(body))
		copy(tampered, body)
		tampered[i] ^= 0x01

		_, err := v.Verify(tampered, header)
		assert.ErrorIs(t, err, events.ErrSignatureInvalid, "byte %d flipped", i)
	}
}

func TestVerifyRejectsTamperedHeader(t *testing.T) {
	body := testutil.PaymentIntentEvent("payment_intent.succeeded", "pi_123", 5000, nil)
	header := testutil.StripeSignature(body, testSecret, time.Now())
	v := events.NewVerifier(testSecret)

	hb := []byte(header)
	hb[len(hb)-1] ^= 0x01
	_, err := v.Verify(body, string(hb))
	assert.ErrorIs(t, err, events.ErrSignatureInvalid)

	_, err = v.Verify(body, "not-a-signature-header")
	assert.ErrorIs(t, err, events.ErrSignatureInvalid)

	_, err = v.Verify(body, "")
	assert.ErrorIs(t, err, events.ErrSignatureInvalid)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	body := testutil.PaymentIntentEvent("payment_intent.succeeded", "pi_123", 5000, nil)
	header := testutil.StripeSignature(body, "whsec_other", time.Now())

	_, err := events.NewVerifier(testSecret).Verify(body, header)
	assert.ErrorIs(t, err, events.ErrSignatureInvalid)
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	body := testutil.PaymentIntentEvent("payment_intent.succeeded", "pi_123", 5000, nil)
	header := testutil.StripeSignature(body, testSecret, time.Now().Add(-time.Hour))

	_, err := events.NewVerifier(testSecret).Verify(body, header)
	assert.ErrorIs(t, err, events.ErrSignatureInvalid)
}

func TestVerifyFailsClosedWithoutSecret(t *testing.T) {
	body := testutil.PaymentIntentEvent("payment_intent.succeeded", "pi_123", 5000, nil)
	header := testutil.StripeSignature(body, testSecret, time.Now())

	_, err := events.NewVerifier("").Verify(body, header)
	assert.ErrorIs(t, err, events.ErrSignatureInvalid)
}

func succeededEvent(t *testing.T, raw []byte) stripe.Event {
	t.Helper()
	var event stripe.Event
	require.NoError(t, json.Unmarshal(raw, &event))
	return event
}

func TestTransformSucceededEvent(t *testing.T) {
	raw := testutil.PaymentIntentEvent("payment_intent.succeeded", "pi_123", 5000, map[string]string{
		"name":    "Ada Lovelace",
		"email":   "ada@example.com",
		"phone":   "+15550100",
		"message": "keep the change",
	})
	payload, ok, err := events.Transform(succeededEvent(t, raw))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, events.Tag, payload.Event)
	assert.Equal(t, int64(5000), payload.Amount)
	assert.Equal(t, "usd", payload.Currency)
	assert.Equal(t, "pi_123", payload.PaymentIntentID)
	assert.Equal(t, int64(1700000000), payload.Created)
	assert.Equal(t, "Ada Lovelace", payload.Customer.Name)
	assert.Equal(t, "ada@example.com", payload.Customer.Email)
	assert.Equal(t, "+15550100", payload.Customer.Phone)
}

func TestTransformDefaultsMissingCustomerFields(t *testing.T) {
	raw := testutil.PaymentIntentEvent("payment_intent.succeeded", "pi_123", 5000, nil)
	payload, ok, err := events.Transform(succeededEvent(t, raw))
	require.NoError(t, err)
	require.True(t, ok)

	// Absent metadata yields empty strings, never null: the downstream shape
	// is stable.
	assert.Equal(t, events.Customer{}, payload.Customer)
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"customer":{"name":"","email":"","phone":""}`)
}

func TestTransformIsDeterministic(t *testing.T) {
	raw := testutil.PaymentIntentEvent("payment_intent.succeeded", "pi_123", 5000, map[string]string{"name": "Ada"})
	event := succeededEvent(t, raw)

	p1, _, err := events.Transform(event)
	require.NoError(t, err)
	p2, _, err := events.Transform(event)
	require.NoError(t, err)

	b1, err := json.Marshal(p1)
	require.NoError(t, err)
	b2, err := json.Marshal(p2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2, "same verified event must serialize byte-identically")
}

func TestTransformIgnoresOtherEventTypes(t *testing.T) {
	for _, typ := range []string{
		"payment_intent.created",
		"payment_intent.payment_failed",
		"charge.refunded",
		"checkout.session.completed",
	} {
		raw := testutil.PaymentIntentEvent(typ, "pi_123", 5000, nil)
		payload, ok, err := events.Transform(succeededEvent(t, raw))
		require.NoError(t, err)
		assert.False(t, ok, "type %s must be filtered", typ)
		assert.Nil(t, payload)
	}
}
