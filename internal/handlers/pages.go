package handlers

import (
	"net/http"

	"github.com/optima-medical/staffserver/internal/auth"
)

// Page endpoints stand in for the SPA's server-rendered entry points. Their
// content is trivial; what matters is the gate chain in front of them.

// Home is the protected landing page; the page-level gate runs before it.
func Home(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, auth.SignInPath, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"page": "home",
		"name": claims.Name,
		"role": claims.Role,
	})
}

// SignIn is the sign-in entry point; the boundary gate bounces anyone
// already authenticated.
func SignIn(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"page": "login"})
}

// VerifyEmail is the verification entry point.
func VerifyEmail(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"page": "verify-email"})
}

// Dashboard serves verified-only content; it sits behind both RequireAuth
// and the page-level RequireVerified gate.
func Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"page":  "dashboard",
		"name":  claims.Name,
		"email": claims.Email,
		"role":  claims.Role,
	})
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
