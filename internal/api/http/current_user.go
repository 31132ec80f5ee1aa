package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/userapi/internal/api/domain"
	"github.com/aussiebroadwan/userapi/internal/api/service"
	"github.com/aussiebroadwan/userapi/pkg/httpx"
	"github.com/aussiebroadwan/userapi/pkg/slogx"
)

type currentUserKey struct{}

// CurrentUser loads the user named by the access token. It must run after
// httpx.AuthnMiddleware. Unknown users get 401 and inactive users 400.
func CurrentUser(users *service.UserService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, ok := httpx.UserIDFromContext(ctx)
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeAuthentication, "Not authenticated")
				return
			}

			u, err := users.Get(ctx, userID)
			switch {
			case errors.Is(err, service.ErrUserNotFound):
				httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeAuthentication, "User not found")
				return
			case err != nil:
				writeInternal(w, r, err)
				return
			case !u.IsActive:
				httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Inactive user")
				return
			}

			if claims, ok := httpx.ClaimsFromContext(ctx); ok {
				ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With("jti", claims.ID))
			}
			ctx = context.WithValue(ctx, currentUserKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperuser rejects non-superusers with 403. It must run after
// CurrentUser.
func RequireSuperuser() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := currentUser(r.Context())
			if !ok || !u.IsSuperuser {
				slogx.FromContext(r.Context()).Info("superuser required")
				httpx.WriteError(w, http.StatusForbidden, httpx.CodeAuthorization, "Not enough permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func currentUser(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(currentUserKey{}).(domain.User)
	return u, ok
}
