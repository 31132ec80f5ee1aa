package http

import (
	"net/http"

	"github.com/aussiebroadwan/userapi/internal/api/domain"
	"github.com/aussiebroadwan/userapi/internal/api/service"
	"github.com/aussiebroadwan/userapi/pkg/apisdk"
	"github.com/aussiebroadwan/userapi/pkg/httpx"
)

type AuthHandler struct {
	TokenService *service.TokenService
}

// HandleToken issues a token pair for a username or email and password.
//
//	@Summary		Log in
//	@Description	Exchanges a username (or email) and password for an access and refresh token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		apisdk.TokenRequest		true	"Credentials"
//	@Success		200		{object}	apisdk.TokenResponse
//	@Failure		400		{object}	apisdk.ErrorResponse	"Validation error or inactive user"
//	@Failure		401		{object}	apisdk.ErrorResponse	"Invalid credentials"
//	@Failure		429		{object}	apisdk.ErrorResponse	"Rate limited"
//	@Router			/api/v1/auth/token [post].
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req apisdk.TokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pair, err := h.TokenService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err, 0)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTokenResponse(pair))
}

// HandleRefresh rotates a refresh token.
//
//	@Summary		Refresh tokens
//	@Description	Exchanges a refresh token for a new pair. The presented refresh token is revoked.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		apisdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	apisdk.TokenResponse
//	@Failure		400		{object}	apisdk.ErrorResponse
//	@Failure		401		{object}	apisdk.ErrorResponse	"Invalid refresh token"
//	@Router			/api/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req apisdk.RefreshRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pair, err := h.TokenService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err, 0)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTokenResponse(pair))
}

// HandleRevoke revokes a refresh token.
//
//	@Summary		Revoke a refresh token
//	@Description	Revokes the token. Unknown tokens are accepted silently.
//	@Tags			Auth
//	@Accept			json
//	@Param			body	body	apisdk.RefreshRequest	true	"Refresh token"
//	@Success		204
//	@Failure		400	{object}	apisdk.ErrorResponse
//	@Router			/api/v1/auth/revoke [post].
func (h *AuthHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	var req apisdk.RefreshRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.TokenService.Revoke(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, r, err, 0)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

func toTokenResponse(p *domain.TokenPair) apisdk.TokenResponse {
	return apisdk.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(p.ExpiresIn.Seconds()),
	}
}
