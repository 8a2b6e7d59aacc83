package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/optima-medical/staffserver/internal/auth"
	"github.com/optima-medical/staffserver/internal/services"
	"github.com/optima-medical/staffserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// captureNotifier records the last verification code instead of emailing it.
type captureNotifier struct {
	mu   sync.Mutex
	code string
}

func (n *captureNotifier) SendVerificationCode(_ context.Context, _, _, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.code = code
	return nil
}

func (n *captureNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.code
}

type testAPI struct {
	router   *chi.Mux
	repo     *fakeUserRepo
	codec    *auth.Codec
	notifier *captureNotifier
}

// newTestAPI wires the auth endpoints the way the server does, against the
// in-memory repository.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	repo := newFakeUserRepo()
	codec := auth.NewCodec("api-secret", time.Hour)
	logger := zap.NewNop()
	notifier := &captureNotifier{}

	authService := services.NewAuthService(repo, codec, logger)
	userService := services.NewUserService(repo)
	verificationService := services.NewVerificationService(repo, notifier, 10*time.Minute, logger)

	gates := NewGates(codec, authService, userService, false, time.Hour, logger)
	authHandler := NewAuthHandler(authService, userService, false, time.Hour)
	verificationHandler := NewVerificationHandler(verificationService)
	profileHandler := NewProfileHandler(userService, nil)

	router := chi.NewRouter()
	router.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, authHandler, verificationHandler, gates)
	})
	router.Route("/api/user", func(r chi.Router) {
		ProfileRouter(r, profileHandler, gates)
	})

	return &testAPI{router: router, repo: repo, codec: codec, notifier: notifier}
}

func (api *testAPI) seed(t *testing.T, email, password string, verified bool) types.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return api.repo.add(types.User{
		Name:           "Alice Smith",
		Email:          email,
		HashedPassword: string(hashed),
		EmailVerified:  verified,
		Role:           types.RoleEmployee,
	})
}

func (api *testAPI) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			return c
		}
	}
	return nil
}

func TestLogin_IssuesCredentialCookie(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	user := api.seed(t, "alice@example.com", "password123", true)

	rec := api.do(http.MethodPost, "/api/auth/login", LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.True(t, resp.User.EmailVerified)
	assert.NotEmpty(t, resp.Token)

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	parsed, err := api.codec.Parse(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", parsed.Email)
}

func TestLogin_SameResponseForUnknownEmailAndWrongPassword(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	api.seed(t, "alice@example.com", "password123", true)

	unknown := api.do(http.MethodPost, "/api/auth/login", LoginRequest{Email: "nobody@example.com", Password: "password123"})
	wrong := api.do(http.MethodPost, "/api/auth/login", LoginRequest{Email: "alice@example.com", Password: "bad"})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
}

func TestLogin_BadRequest(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/auth/login", LoginRequest{Email: "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{not json"))
	raw := httptest.NewRecorder()
	api.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestMe_ReturnsAuthoritativeRow(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	api.seed(t, "alice@example.com", "password123", false)

	login := api.do(http.MethodPost, "/api/auth/login", LoginRequest{Email: "alice@example.com", Password: "password123"})
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	rec := api.do(http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var row types.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&row))
	assert.Equal(t, "alice@example.com", row.Email)
	assert.False(t, row.EmailVerified)
}

func TestMe_Unauthenticated(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshSession_ReconcilesAgainstRow(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	user := api.seed(t, "alice@example.com", "password123", false)

	login := api.do(http.MethodPost, "/api/auth/login", LoginRequest{Email: "alice@example.com", Password: "password123"})
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	// Verification lands after the credential was issued.
	require.NoError(t, api.repo.MarkEmailVerified(context.Background(), user.ID))

	rec := api.do(http.MethodPost, "/api/auth/session/refresh", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.User.EmailVerified)
	assert.Equal(t, user.ID, resp.User.ID)

	refreshed := sessionCookie(rec)
	require.NotNil(t, refreshed)
	parsed, err := api.codec.Parse(refreshed.Value)
	require.NoError(t, err)
	assert.True(t, parsed.EmailVerified)
}

func TestLogout_ClearsEveryCookieGeneration(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	api.seed(t, "alice@example.com", "password123", true)

	login := api.do(http.MethodPost, "/api/auth/login", LoginRequest{Email: "alice@example.com", Password: "password123"})
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	rec := api.do(http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	expired := make(map[string]bool)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			expired[c.Name] = true
		}
	}
	for _, name := range auth.CredentialCookieNames {
		assert.True(t, expired[name], "cookie %q should be expired", name)
	}
}

func TestLogout_WorksWithoutCredential(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
