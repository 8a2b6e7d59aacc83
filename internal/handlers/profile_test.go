package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/optima-medical/staffserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginCookie(t *testing.T, api *testAPI) *http.Cookie {
	t.Helper()
	rec := api.do(http.MethodPost, "/api/auth/login", LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	return cookie
}

func TestProfileGet(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	api.seed(t, "alice@example.com", "password123", true)
	cookie := loginCookie(t, api)

	rec := api.do(http.MethodGet, "/api/user/profile", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var row types.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&row))
	assert.Equal(t, "alice@example.com", row.Email)
	assert.Equal(t, "Alice Smith", row.Name)
}

func TestProfileUpdate_PartialFields(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	api.seed(t, "alice@example.com", "password123", true)
	cookie := loginCookie(t, api)

	name := "Alice Cooper"
	rec := api.do(http.MethodPut, "/api/user/profile", UpdateProfileRequest{Name: &name}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var row types.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&row))
	assert.Equal(t, "Alice Cooper", row.Name)
	assert.Equal(t, "alice@example.com", row.Email)
}

func TestProfileUpdate_ValidationErrors(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	api.seed(t, "alice@example.com", "password123", true)
	cookie := loginCookie(t, api)

	shortName := "a"
	rec := api.do(http.MethodPut, "/api/user/profile", UpdateProfileRequest{Name: &shortName}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	longPhone := strings.Repeat("1", 21)
	rec = api.do(http.MethodPut, "/api/user/profile", UpdateProfileRequest{PhoneNumber: &longPhone}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, "/api/user/profile", UpdateProfileRequest{NewPassword: "newpassword1"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Contains(t, body.Error, "current password")
}

func TestProfileUpdate_PasswordChangeAllowsNewLogin(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	api.seed(t, "alice@example.com", "password123", true)
	cookie := loginCookie(t, api)

	rec := api.do(http.MethodPut, "/api/user/profile", UpdateProfileRequest{
		CurrentPassword: "password123",
		NewPassword:     "a-new-password",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	old := api.do(http.MethodPost, "/api/auth/login", LoginRequest{Email: "alice@example.com", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, old.Code)

	fresh := api.do(http.MethodPost, "/api/auth/login", LoginRequest{Email: "alice@example.com", Password: "a-new-password"})
	assert.Equal(t, http.StatusOK, fresh.Code)
}

func TestProfile_RequiresAuth(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/user/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPut, "/api/user/profile", UpdateProfileRequest{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadAvatar_NotConfigured(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	api.seed(t, "alice@example.com", "password123", true)
	cookie := loginCookie(t, api)

	rec := api.do(http.MethodPost, "/api/user/avatar", nil, cookie)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
