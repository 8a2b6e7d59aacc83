package auth

import (
	"path"
	"strings"
)

// Status is the caller's authentication state as far as the deciding layer
// can tell. The edge gate can only ever distinguish Unauthenticated from
// "some credential present"; the boundary gate derives the full status from
// parsed claims; the page gate rebuilds it from the users row.
type Status int

const (
	Unauthenticated Status = iota
	AuthenticatedUnverified
	AuthenticatedVerified
)

// StatusFor maps a claims snapshot to a Status.
func StatusFor(verified bool) Status {
	if verified {
		return AuthenticatedVerified
	}
	return AuthenticatedUnverified
}

// PathClass buckets request paths for the decision table.
type PathClass int

const (
	PathProtected PathClass = iota
	PathVerification
	PathSignIn
)

// Action is the decision for a (status, path) pair.
type Action int

const (
	Allow Action = iota
	RedirectSignIn
	RedirectVerify
	RedirectHome
)

// Redirect targets for the three non-allow actions.
const (
	SignInPath       = "/login"
	VerificationPath = "/verify-email"
	HomePath         = "/"
)

// Decide is the single routing policy shared by the edge, request-boundary,
// and page-level gates. Each gate supplies the status it can actually
// determine at its layer.
func Decide(status Status, class PathClass) Action {
	switch class {
	case PathSignIn:
		switch status {
		case AuthenticatedVerified:
			return RedirectHome
		case AuthenticatedUnverified:
			return RedirectVerify
		default:
			return Allow
		}
	case PathVerification:
		switch status {
		case AuthenticatedVerified:
			return RedirectHome
		case AuthenticatedUnverified:
			return Allow
		default:
			return RedirectSignIn
		}
	default:
		switch status {
		case AuthenticatedVerified:
			return Allow
		case AuthenticatedUnverified:
			return RedirectVerify
		default:
			return RedirectSignIn
		}
	}
}

// Target returns the redirect destination for an action, or "" for Allow.
func (a Action) Target() string {
	switch a {
	case RedirectSignIn:
		return SignInPath
	case RedirectVerify:
		return VerificationPath
	case RedirectHome:
		return HomePath
	default:
		return ""
	}
}

// Classify buckets a request path for Decide.
func Classify(requestPath string) PathClass {
	switch {
	case requestPath == SignInPath || strings.HasPrefix(requestPath, SignInPath+"/"):
		return PathSignIn
	case requestPath == VerificationPath || strings.HasPrefix(requestPath, VerificationPath+"/"):
		return PathVerification
	default:
		return PathProtected
	}
}

// Public paths skip the edge gate entirely: the sign-in, sign-out, and
// verification surfaces plus health and static assets.
var publicPrefixes = []string{
	SignInPath,
	VerificationPath,
	"/logout",
	"/api/auth/",
	"/healthz",
	"/static/",
	"/favicon.ico",
}

var assetExtensions = map[string]bool{
	".svg": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".webp": true, ".ico": true, ".css": true, ".js": true,
}

// PublicPath reports whether the edge gate lets the path through without a
// credential.
func PublicPath(requestPath string) bool {
	for _, prefix := range publicPrefixes {
		if requestPath == prefix || strings.HasPrefix(requestPath, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return assetExtensions[strings.ToLower(path.Ext(requestPath))]
}
