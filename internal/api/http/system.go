package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/store"
	"github.com/aussiebroadwan/userapi/pkg/apisdk"
	"github.com/aussiebroadwan/userapi/pkg/httpx"
)

// RootHandler godoc
//
//	@Summary		API information
//	@Description	Welcome message plus links to the docs and health endpoints
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	apisdk.RootResponse
//	@Router			/ [get].
func RootHandler(cfg Config) http.HandlerFunc {
	docs := ""
	if cfg.EnableDocs {
		docs = "/swagger/index.html"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, apisdk.RootResponse{
			Message: "Welcome to " + cfg.ProjectName,
			Version: cfg.Version,
			Docs:    docs,
			Health:  "/health",
		})
	}
}

// HealthHandler godoc
//
//	@Summary		Health check
//	@Description	Liveness probe. Always 200 while the process is serving.
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	apisdk.HealthResponse
//	@Router			/health [get].
func HealthHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, apisdk.HealthResponse{
			Status:      "healthy",
			Environment: cfg.Environment,
			Version:     cfg.Version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness check
//	@Description	Readiness probe. 200 once the database answers a ping.
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	apisdk.ReadyResponse
//	@Failure		503	{object}	apisdk.ReadyResponse
//	@Router			/readyz [get].
func ReadyzHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, apisdk.ReadyResponse{
				Status: "unavailable",
				Error:  "database: " + err.Error(),
			})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, apisdk.ReadyResponse{Status: "ok"})
	}
}
