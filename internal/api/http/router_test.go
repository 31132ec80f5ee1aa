package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	apihttp "github.com/aussiebroadwan/userapi/internal/api/http"
	"github.com/aussiebroadwan/userapi/internal/api/service"
	"github.com/aussiebroadwan/userapi/internal/api/store/drivers/sqldb"
	"github.com/aussiebroadwan/userapi/internal/api/store/migrate"
	"github.com/aussiebroadwan/userapi/pkg/apisdk"
	"github.com/aussiebroadwan/userapi/pkg/cryptox"
	"github.com/aussiebroadwan/userapi/pkg/httpx"
	"github.com/aussiebroadwan/userapi/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cryptox.SetPepper("http-test-pepper")
	os.Exit(m.Run())
}

type testEnv struct {
	server *httptest.Server
	client *apisdk.Client
	store  *sqldb.Store
	signer *jwtx.HMAC
	admin  *apisdk.Session
}

var generous = httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}

func newTestEnv(t *testing.T, tweak ...func(*apihttp.Config)) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg, err := sqldb.ParseURL("sqlite:///:memory:")
	require.NoError(t, err)
	st, err := sqldb.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	runner, err := migrate.NewRunner(st.DB(), st.Dialect(), migrate.WithLogger(logger))
	require.NoError(t, err)
	_, err = runner.Apply(ctx)
	require.NoError(t, err)

	signer, err := jwtx.NewHMAC("HS256", []byte("http-test-secret-0123456789"), jwtx.VerifyOptions{Issuer: "User API"})
	require.NoError(t, err)

	users := &service.UserService{Store: st, MaxPerPage: 50}
	tokens := &service.TokenService{
		Users:      users,
		Store:      st,
		Signer:     signer,
		Verifier:   signer,
		Issuer:     "User API",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: time.Hour,
	}

	_, _, err = (&service.BootstrapService{Users: users}).EnsureFirstSuperuser(ctx, service.FirstSuperuser{
		Email: "admin@example.com", Username: "admin", Password: "adminpassword",
	})
	require.NoError(t, err)

	rcfg := apihttp.Config{
		ProjectName:    "User API",
		Version:        "1.2.3",
		Environment:    "test",
		Prefix:         "/api/v1",
		ItemsPerPage:   20,
		AllowedOrigins: []string{"*"},
		EnableDocs:     true,
		StrictLimit:    generous,
		ModerateLimit:  generous,
	}
	for _, fn := range tweak {
		fn(&rcfg)
	}

	router := apihttp.NewRouter(rcfg, tokens, st, logger)
	router.UserService = users
	router.TokenService = tokens
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	client := apisdk.NewClient(srv.URL)
	admin, err := client.Login(ctx, "admin", "adminpassword")
	require.NoError(t, err)

	return &testEnv{server: srv, client: client, store: st, signer: signer, admin: admin}
}

func (e *testEnv) register(t *testing.T, username string) (*apisdk.UserResponse, *apisdk.Session) {
	t.Helper()
	ctx := context.Background()

	u, err := e.client.Register(ctx, apisdk.UserCreate{
		Email:    username + "@example.com",
		Username: username,
		Password: "password123",
	})
	require.NoError(t, err)

	sess, err := e.client.Login(ctx, username, "password123")
	require.NoError(t, err)
	return u, sess
}

// rawRequest bypasses the SDK to check status codes, headers and bodies.
func (e *testEnv) rawRequest(t *testing.T, method, path, token string, body any) (*http.Response, apisdk.ErrorResponse) {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, e.server.URL+path, rd)
	require.NoError(t, err)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var errBody apisdk.ErrorResponse
	if resp.StatusCode >= 400 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	}
	return resp, errBody
}

func TestSystemEndpoints(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	root, err := env.client.Root(ctx)
	require.NoError(t, err)
	require.Equal(t, "Welcome to User API", root.Message)
	require.Equal(t, "1.2.3", root.Version)
	require.Equal(t, "/health", root.Health)
	require.Equal(t, "/swagger/index.html", root.Docs)

	health, err := env.client.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "healthy", health.Status)
	require.Equal(t, "test", health.Environment)

	ready, err := env.client.Ready(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)

	resp, _ := env.rawRequest(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReadyzReportsDatabaseDown(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Close())

	resp, _ := env.rawRequest(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSwaggerDisabled(t *testing.T) {
	env := newTestEnv(t, func(c *apihttp.Config) { c.EnableDocs = false })

	resp, _ := env.rawRequest(t, http.MethodGet, "/swagger/index.html", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	root, err := env.client.Root(context.Background())
	require.NoError(t, err)
	require.Empty(t, root.Docs)
}

func TestTraceIDHeader(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(httpx.TraceHeader, "4bf92f3577b34da6a3ce929d0e0e4736")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", resp.Header.Get(httpx.TraceHeader))

	req.Header.Set(httpx.TraceHeader, "garbage")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	got := resp.Header.Get(httpx.TraceHeader)
	require.Len(t, got, 32)
	require.NotEqual(t, "garbage", got)
}
