package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/userapi/internal/api/service"
	"github.com/aussiebroadwan/userapi/internal/api/store"
	"github.com/aussiebroadwan/userapi/pkg/httpx"
	"github.com/aussiebroadwan/userapi/pkg/jwtx"
	"github.com/aussiebroadwan/userapi/pkg/slogx"

	_ "github.com/aussiebroadwan/userapi/api/docs" // Swagger docs
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Config is the part of the application config the HTTP layer needs.
type Config struct {
	ProjectName    string
	Version        string
	Environment    string
	Prefix         string // e.g. /api/v1
	ItemsPerPage   int
	AllowedOrigins []string
	EnableDocs     bool

	StrictLimit   httpx.RateLimitConfig
	ModerateLimit httpx.RateLimitConfig
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	cfg      Config
	verifier jwtx.Verifier
	store    store.Store
	logger   *slog.Logger

	UserService  *service.UserService
	TokenService *service.TokenService
}

func NewRouter(cfg Config, verifier jwtx.Verifier, st store.Store, logger *slog.Logger) *Router {
	cfg.Prefix = "/" + strings.Trim(cfg.Prefix, "/")
	if cfg.Prefix == "/" {
		cfg.Prefix = ""
	}
	if cfg.ItemsPerPage <= 0 {
		cfg.ItemsPerPage = service.DefaultItemsPerPage
	}

	r := &Router{
		Mux:      http.NewServeMux(),
		cfg:      cfg,
		verifier: verifier,
		store:    st,
		logger:   logger,
	}

	// First is outermost. TraceID must wrap otelhttp so the server span
	// joins the chosen trace, and logging sits inside both so it sees it.
	r.middlewares = []httpx.Middleware{
		httpx.TraceID(),
		otelhttp.NewMiddleware(cfg.ProjectName,
			otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
				return req.Method + " " + req.URL.Path
			}),
		),
		middleware.RealIP,
		slogx.HTTPMiddleware(r.logger),
		middleware.Recoverer,
		httpx.CORS(cfg.AllowedOrigins),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSystem()
	r.registerAuth()
	r.registerUsers()

	if r.cfg.EnableDocs {
		r.Mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	r.handler = httpx.Chain(r.Mux, r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						User API
//	@version					1.0.0
//	@description				User management REST API: registration, authentication and profile management.
//	@description
//	@description				Access tokens are HMAC-signed JWTs. Refresh tokens are opaque and rotate on every use.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h := r.handler
	if h == nil {
		h = httpx.Chain(r.Mux, r.middlewares...)
	}
	h.ServeHTTP(w, req)
}

func (r *Router) authenticated(h http.HandlerFunc, mws ...httpx.Middleware) http.Handler {
	chain := append([]httpx.Middleware{
		httpx.AuthnMiddleware(r.verifier),
		CurrentUser(r.UserService),
	}, mws...)
	return httpx.Chain(h, chain...)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /{$}", RootHandler(r.cfg))
	r.Mux.Handle("GET /health", HealthHandler(r.cfg))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.store))
}

func (r *Router) registerAuth() {
	h := &AuthHandler{TokenService: r.TokenService}
	p := r.cfg.Prefix

	// Credential and refresh exchanges are brute-force targets.
	r.Mux.Handle("POST "+p+"/auth/token",
		httpx.Chain(http.HandlerFunc(h.HandleToken), httpx.RateLimitByIP(r.cfg.StrictLimit)),
	)
	r.Mux.Handle("POST "+p+"/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh), httpx.RateLimitByIP(r.cfg.StrictLimit)),
	)
	r.Mux.Handle("POST "+p+"/auth/revoke",
		httpx.Chain(http.HandlerFunc(h.HandleRevoke), httpx.RateLimitByIP(r.cfg.ModerateLimit)),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService, ItemsPerPage: r.cfg.ItemsPerPage}
	p := r.cfg.Prefix

	r.Mux.Handle("POST "+p+"/users",
		httpx.Chain(http.HandlerFunc(h.HandleRegister), httpx.RateLimitByIP(r.cfg.ModerateLimit)),
	)

	// /users/me is more specific than /users/{id} and wins.
	r.Mux.Handle("GET "+p+"/users/me", r.authenticated(h.HandleMe))
	r.Mux.Handle("GET "+p+"/users", r.authenticated(h.HandleList, RequireSuperuser()))
	r.Mux.Handle("GET "+p+"/users/{id}", r.authenticated(h.HandleGet))
	r.Mux.Handle("PUT "+p+"/users/{id}", r.authenticated(h.HandleUpdate))
	r.Mux.Handle("PUT "+p+"/users/{id}/password", r.authenticated(h.HandleUpdatePassword))
	r.Mux.Handle("DELETE "+p+"/users/{id}", r.authenticated(h.HandleDelete, RequireSuperuser()))
}
