package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/praco-io/praco-backend/api/responses"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/logger"
)

// FixedWindowLimiter is the counter surface the middleware needs.
type FixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit caps mutating requests per user inside a fixed window. Reads pass
// through untouched. The limiter failing open is deliberate: losing Redis
// should degrade throttling, not availability.
func RateLimit(limiter FixedWindowLimiter, limit int64, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 || isReadMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			scope := strings.Join([]string{"write", UserIDFromContext(r.Context()).String()}, ":")
			allowed, _, err := limiter.FixedWindowAllow(r.Context(), scope, limit, window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "rate limit check failed; allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests; retry later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
