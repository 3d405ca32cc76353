package ratelimit

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/duebook/handler"
	"github.com/dmitrymomot/duebook/pkg/logger"
)

// ErrTooManyRequests is rendered when a key is over its limit.
var ErrTooManyRequests = handler.NewHTTPError(http.StatusTooManyRequests, "too_many_requests")

// Middleware enforces limiter per key. Store failures let the request through.
func Middleware(limiter Limiter, key KeyFunc, log *slog.Logger) func(http.Handler) http.Handler {
	if limiter == nil || key == nil {
		panic("ratelimit: limiter and key func are required")
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), k)
			if err != nil {
				log.WarnContext(r.Context(), "rate limit check failed, allowing request", logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				retry := max(int(res.RetryAfter(time.Now()).Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				_ = handler.JSONError(errors.Join(ErrTooManyRequests, errors.New("rate limit exceeded"))).Render(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
