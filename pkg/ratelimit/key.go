package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/dmitrymomot/duebook/pkg/clientip"
)

const maxKeyLength = 64

// KeyFunc derives the counter key for a request. An empty key skips limiting.
type KeyFunc func(*http.Request) string

// ByClientIP keys requests by scope and client IP.
func ByClientIP(scope string) KeyFunc {
	return func(r *http.Request) string {
		ip := clientip.FromContext(r.Context())
		if ip == "" {
			ip = clientip.GetIP(r)
		}
		if ip == "" {
			return ""
		}
		return Join(scope, ip)
	}
}

// Join builds a key from parts. Keys longer than 64 bytes are hashed.
func Join(parts ...string) string {
	key := strings.Join(parts, ":")
	if len(key) <= maxKeyLength {
		return key
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}
