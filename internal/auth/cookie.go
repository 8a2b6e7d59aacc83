package auth

import "net/http"

// Cookie names the credential may travel under. The app historically shipped
// under the next-auth names before the authjs rename; both generations are
// still accepted, each with and without the secure-transport prefix.
const (
	CookieName       = "authjs.session-token"
	LegacyCookieName = "next-auth.session-token"
	securePrefix     = "__Secure-"
)

// CredentialCookieNames lists every accepted cookie name, newest first.
var CredentialCookieNames = []string{
	CookieName,
	securePrefix + CookieName,
	LegacyCookieName,
	securePrefix + LegacyCookieName,
}

// CookiePresent reports whether any credential cookie exists on the request.
// It deliberately does not parse or verify the value: this is the edge
// gate's only available signal.
func CookiePresent(r *http.Request) bool {
	for _, name := range CredentialCookieNames {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return true
		}
	}
	return false
}

// TokenFromCookies returns the first credential cookie value found.
func TokenFromCookies(r *http.Request) (string, bool) {
	for _, name := range CredentialCookieNames {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return cookie.Value, true
		}
	}
	return "", false
}

// WriteCookie sets the credential cookie under the current name.
func WriteCookie(w http.ResponseWriter, token string, maxAge int, secure bool) {
	name := CookieName
	if secure {
		name = securePrefix + CookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookies expires every accepted cookie name so sign-out works no
// matter which generation issued the credential.
func ClearCookies(w http.ResponseWriter) {
	for _, name := range CredentialCookieNames {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
}
