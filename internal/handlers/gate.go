package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/optima-medical/staffserver/internal/auth"
	"github.com/optima-medical/staffserver/internal/services"
	"go.uber.org/zap"
)

// Gates holds the three access-gate layers. All three consult the same
// decision table (auth.Decide); they differ only in how much of the caller's
// status they can actually determine.
type Gates struct {
	codec       *auth.Codec
	authService *services.AuthService
	userService *services.UserService
	secure      bool
	cookieTTL   time.Duration
	logger      *zap.Logger
}

func NewGates(codec *auth.Codec, authService *services.AuthService, userService *services.UserService, secure bool, cookieTTL time.Duration, logger *zap.Logger) *Gates {
	return &Gates{
		codec:       codec,
		authService: authService,
		userService: userService,
		secure:      secure,
		cookieTTL:   cookieTTL,
		logger:      logger.Named("gates"),
	}
}

// EdgeGate is the coarse first filter: it checks only that some credential
// cookie exists. It never parses the token (the layer it models has no
// signing secret) and never consults verification status. Public paths skip
// it entirely.
func EdgeGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.PublicPath(r.URL.Path) || auth.CookiePresent(r) {
			next.ServeHTTP(w, r)
			return
		}
		deny(w, r, auth.Decide(auth.Unauthenticated, auth.Classify(r.URL.Path)))
	})
}

// Boundary is the request-boundary gate for page navigation. It parses the
// credential if one is present (any token error counts as no credential),
// refreshes the claims from the store, and routes per the decision table
// using the claims-derived status. This layer is a UX convenience, not a
// security boundary: the claims may lag the database by design.
func (g *Gates) Boundary(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := auth.Unauthenticated

		if claims, ok := g.resolveClaims(w, r); ok {
			status = auth.StatusFor(claims.EmailVerified)
			r = r.WithContext(withClaims(r.Context(), claims))
		}

		action := auth.Decide(status, auth.Classify(r.URL.Path))
		if action != auth.Allow {
			deny(w, r, action)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Identify resolves claims when a credential is present but never denies;
// sign-out uses it so the bookkeeping can find the user.
func (g *Gates) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := g.resolveClaims(w, r); ok {
			r = r.WithContext(withClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth guards API endpoints: a missing or unparsable credential fails
// closed with 401. Verification status is not checked here; endpoints that
// need it add RequireVerified.
func (g *Gates) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := g.resolveClaims(w, r)
		if !ok {
			deny(w, r, auth.RedirectSignIn)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// RequireVerified is the page-level gate and the only security boundary for
// the verified/unverified distinction: it re-reads the users row and ignores
// the cached claims' verification flag entirely. A stale credential claiming
// verified=true does not get past it.
func (g *Gates) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r.Context())
		if err != nil {
			deny(w, r, auth.RedirectSignIn)
			return
		}

		user, err := g.userService.GetByID(r.Context(), userID)
		if err != nil {
			g.logger.Error("page gate could not read user", zap.Int("user_id", userID), zap.Error(err))
			deny(w, r, auth.RedirectSignIn)
			return
		}

		action := auth.Decide(auth.StatusFor(user.EmailVerified), auth.PathProtected)
		if action != auth.Allow {
			deny(w, r, action)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolveClaims parses the credential and runs the implicit refresh so the
// cached verification flag self-heals within one request of the database
// changing. A refresh that cannot reach the store keeps the prior claims;
// that is fine here because RequireVerified does the authoritative check.
func (g *Gates) resolveClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	token, ok := credentialToken(r)
	if !ok {
		return auth.Claims{}, false
	}

	claims, err := g.codec.Parse(token)
	if err != nil {
		// Fail closed: a bad token is the same as no token.
		return auth.Claims{}, false
	}

	refreshed, newToken, err := g.authService.Refresh(r.Context(), claims)
	if err != nil {
		g.logger.Warn("implicit credential refresh failed", zap.Error(err))
		return claims, true
	}
	if refreshed.EmailVerified != claims.EmailVerified || refreshed.AvatarURL != claims.AvatarURL {
		auth.WriteCookie(w, newToken, int(g.cookieTTL.Seconds()), g.secure)
	}
	return refreshed, true
}

func deny(w http.ResponseWriter, r *http.Request, action auth.Action) {
	target := action.Target()
	if strings.HasPrefix(r.URL.Path, "/api/") {
		status := http.StatusForbidden
		message := "forbidden"
		if action == auth.RedirectSignIn {
			status = http.StatusUnauthorized
			message = "unauthorized"
		}
		writeJSON(w, status, ErrorResponse{Error: message, Redirect: target})
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
