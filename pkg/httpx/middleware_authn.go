package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/userapi/pkg/jwtx"
	"github.com/aussiebroadwan/userapi/pkg/slogx"
)

// AuthnMiddleware requires a valid bearer access token and stores the
// subject and claims in the request context.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			scheme, raw, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			raw = strings.TrimSpace(raw)
			if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
				WriteError(w, http.StatusUnauthorized, CodeAuthentication, "Not authenticated")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Debug("access token rejected", "err", err)
				detail := "Invalid token"
				if errors.Is(err, jwtx.ErrExpired) {
					detail = "Token expired"
				}
				WriteError(w, http.StatusUnauthorized, CodeAuthentication, detail)
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				WriteError(w, http.StatusUnauthorized, CodeAuthentication, "Invalid token format")
				return
			}

			ctx = contextWithAuth(ctx, userID, claims)
			ctx = slogx.WithContext(ctx, log.With("user_id", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
