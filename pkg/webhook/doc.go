// Package webhook signs and verifies inbound webhook payloads.
//
// Signatures are HMAC-SHA512 over the raw request body, hex encoded, the
// scheme used by Paystack and similar gateways:
//
//	sig, err := webhook.Sign(secret, body)
//
//	if err := webhook.Verify(secret, body, r.Header.Get("x-paystack-signature")); err != nil {
//		// errors.Is(err, webhook.ErrSignatureMismatch) -> 401, nothing written
//	}
//
// Always verify the exact bytes received. Re-encoding a decoded JSON body
// changes key order and whitespace and breaks the signature.
package webhook
