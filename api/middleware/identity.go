package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/praco-io/praco-backend/api/responses"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/logger"
)

// identityHeader carries the authenticated user id. Authentication itself
// happens at the edge; the gateway strips any client-supplied value and sets
// this header only after verifying the session.
const identityHeader = "X-User-Id"

// Identity requires a verified user id on the request and injects it into the
// context for downstream handlers.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(identityHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
