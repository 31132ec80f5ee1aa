package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/userapi/internal/api/service"
	"github.com/aussiebroadwan/userapi/pkg/apisdk"
	"github.com/aussiebroadwan/userapi/pkg/httpx"
	"github.com/aussiebroadwan/userapi/pkg/slogx"

	"go.opentelemetry.io/otel/trace"
)

// writeServiceError maps service and validation errors onto the error
// body. userID, when non-zero, names the user in not-found details.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, userID int64) {
	var verr *apisdk.ValidationError
	var perr *service.PageError

	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, verr.Error())
	case errors.As(err, &perr):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, perr.Detail)

	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, httpx.CodeConflict, "Email already registered")
	case errors.Is(err, service.ErrUsernameTaken):
		httpx.WriteError(w, http.StatusConflict, httpx.CodeConflict, "Username already taken")

	case errors.Is(err, service.ErrUserNotFound):
		detail := "User not found"
		if userID != 0 {
			detail = fmt.Sprintf("User with ID %d not found", userID)
		}
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, detail)

	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeAuthentication, "Invalid credentials")
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeAuthentication, "Invalid refresh token")
	case errors.Is(err, service.ErrInactiveUser):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Inactive user")
	case errors.Is(err, service.ErrIncorrectPassword):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Current password is incorrect")

	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeAuthorization, "Not enough permissions")
	case errors.Is(err, service.ErrPasswordNotOwn):
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeAuthorization, "You can only update your own password")

	default:
		writeInternal(w, r, err)
	}
}

// writeInternal logs err with the trace id and answers 500 without
// leaking it.
func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	slogx.FromContext(ctx).Error("request failed",
		slog.Any("error", err),
		slog.String("trace_id", trace.SpanContextFromContext(ctx).TraceID().String()),
	)
	httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "Internal server error")
}

func writeBadRequest(w http.ResponseWriter, detail string) {
	httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, detail)
}

// decodeAndValidate decodes a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		writeBadRequest(w, err.Error())
		return false
	}
	if err := apisdk.Validate(dst); err != nil {
		writeServiceError(w, r, err, 0)
		return false
	}
	return true
}
