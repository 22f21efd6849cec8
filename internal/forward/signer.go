package forward

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the outbound payload signature when signing is
// configured.
const SignatureHeader = "X-Paybridge-Signature"

// Signer produces the signature header value for an outbound payload. The
// variant is selected once at startup: Keyed when a signing secret is
// configured, Unsigned otherwise. Unsigned delivery is a deliberate,
// compatibility-preserving fallback; config.Warnings flags it to operators.
type Signer interface {
	// Sign returns the header value for the exact bytes to be transmitted.
	// ok is false when the payload should go out unsigned.
	Sign(payload []byte) (value string, ok bool)
}

// NewSigner selects the signer variant for the given secret.
func NewSigner(secret string) Signer {
	if secret == "" {
		return Unsigned{}
	}
	return Keyed{secret: []byte(secret)}
}

// Keyed signs payloads with HMAC-SHA256, encoded as lowercase hex.
type Keyed struct {
	secret []byte
}

func (k Keyed) Sign(payload []byte) (string, bool) {
	mac := hmac.New(sha256.New, k.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), true
}

// Unsigned attaches no signature.
type Unsigned struct{}

func (Unsigned) Sign([]byte) (string, bool) { return "", false }
