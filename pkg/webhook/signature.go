package webhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// Sign returns the lowercase hex HMAC-SHA512 of payload keyed by secret.
// The signature covers the raw body only; gateways that sign this way
// (Paystack among them) carry no timestamp, so replay protection is left
// to idempotent event handling on the receiving side.
func Sign(secret string, payload []byte) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}

	return sign(secret, payload), nil
}

// Verify checks signature against the HMAC-SHA512 of payload.
// Comparison is constant-time. Hex case is ignored.
func Verify(secret string, payload []byte, signature string) error {
	if secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}
	signature = strings.ToLower(strings.TrimSpace(signature))
	if signature == "" {
		return ErrMissingSignature
	}

	expected := sign(secret, payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}

	return nil
}

// VerifyRequest reads the signature from header and verifies it against the already-read body.
func VerifyRequest(secret string, r *http.Request, header string, body []byte) error {
	return Verify(secret, body, r.Header.Get(header))
}

func sign(secret string, payload []byte) string {
	h := hmac.New(sha512.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
