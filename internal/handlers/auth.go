package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/optima-medical/staffserver/internal/auth"
	"github.com/optima-medical/staffserver/internal/services"
	"github.com/optima-medical/staffserver/internal/store"
)

// AuthHandler owns the credential lifecycle endpoints: sign-in, sign-out,
// current-user, and explicit session refresh.
type AuthHandler struct {
	authService  *services.AuthService
	userService  *services.UserService
	secure       bool
	cookieMaxAge int
}

func NewAuthHandler(authService *services.AuthService, userService *services.UserService, secure bool, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		secure:       secure,
		cookieMaxAge: int(tokenTTL.Seconds()),
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, h *AuthHandler, v *VerificationHandler, gates *Gates) {
	r.Post("/login", h.Login)
	r.With(gates.Identify).Post("/logout", h.Logout)
	r.With(gates.RequireAuth).Get("/me", h.Me)
	r.With(gates.RequireAuth).Post("/session/refresh", h.RefreshSession)
	r.With(gates.RequireAuth).Post("/send-verification", v.Send)
	r.With(gates.RequireAuth).Post("/verify-email", v.Verify)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse mirrors the claims the credential carries.
type SessionResponse struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

type SessionUser struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
	AvatarURL     string `json:"avatar_url,omitempty"`
}

// Login authenticates an (email, password) pair and issues the credential
// cookie. Unknown email and wrong password produce the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	claims, token, err := h.authService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	auth.WriteCookie(w, token, h.cookieMaxAge, h.secure)
	writeJSON(w, http.StatusOK, sessionResponse(token, claims))
}

// Logout clears every credential cookie generation and records the sign-out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, err := claimsFromContext(r.Context()); err == nil {
		if userID, err := claims.UserID(); err == nil {
			h.authService.Logout(r.Context(), userID)
		}
	}
	auth.ClearCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

// LogoutPage clears the credential cookies and sends the browser to
// sign-in.
func (h *AuthHandler) LogoutPage(w http.ResponseWriter, r *http.Request) {
	if claims, err := claimsFromContext(r.Context()); err == nil {
		if userID, err := claims.UserID(); err == nil {
			h.authService.Logout(r.Context(), userID)
		}
	}
	auth.ClearCookies(w)
	http.Redirect(w, r, auth.SignInPath, http.StatusFound)
}

// Me returns the authoritative row for the current user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// RefreshSession reconciles the caller's credential against the store and
// re-issues it. Read-only apart from the new signed token.
func (h *AuthHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	refreshed, token, err := h.authService.Refresh(r.Context(), claims)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to refresh session")
		return
	}

	auth.WriteCookie(w, token, h.cookieMaxAge, h.secure)
	writeJSON(w, http.StatusOK, sessionResponse(token, refreshed))
}

func sessionResponse(token string, claims auth.Claims) SessionResponse {
	userID, _ := claims.UserID()
	return SessionResponse{
		Token: token,
		User: SessionUser{
			ID:            userID,
			Name:          claims.Name,
			Email:         claims.Email,
			Role:          claims.Role,
			EmailVerified: claims.EmailVerified,
			AvatarURL:     claims.AvatarURL,
		},
	}
}
