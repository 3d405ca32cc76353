package paystack

import (
	"errors"

	"github.com/dmitrymomot/duebook/pkg/webhook"
)

// SignatureHeader carries the HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

// VerifySignature checks a webhook body against its signature header value.
// Paystack signs webhooks with the API secret key.
func VerifySignature(secret string, payload []byte, signature string) error {
	if err := webhook.Verify(secret, payload, signature); err != nil {
		if errors.Is(err, webhook.ErrInvalidConfiguration) {
			return errors.Join(ErrMissingSecretKey, err)
		}
		return errors.Join(ErrInvalidSignature, err)
	}
	return nil
}
