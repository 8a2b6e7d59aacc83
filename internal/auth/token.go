package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSecret indicates the codec was constructed without a signing
	// secret; issuing can only fail through this misconfiguration.
	ErrNoSecret = errors.New("signing secret is not configured")

	// ErrInvalidSignature indicates the token's signature does not match.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrMalformed indicates the token could not be decoded at all.
	ErrMalformed = errors.New("malformed token")
)

// Claims is the decoded content of a credential. EmailVerified and AvatarURL
// are snapshots taken from the users row at issue or refresh time; they may
// lag the row at any moment afterwards.
type Claims struct {
	jwt.RegisteredClaims
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
	AvatarURL     string `json:"avatar_url,omitempty"`
}

// UserID parses the numeric subject.
func (c Claims) UserID() (int, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil || id < 1 {
		return 0, ErrMalformed
	}
	return id, nil
}

// Codec signs and verifies credentials. It is a pure transform: no I/O, no
// store access.
type Codec struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewCodec(secret string, tokenTTL time.Duration) *Codec {
	return &Codec{secret: []byte(secret), tokenTTL: tokenTTL}
}

// Issue signs the claims, stamping subject, issued-at, and expiry.
func (c *Codec) Issue(userID int, claims Claims) (string, error) {
	if len(c.secret) == 0 {
		return "", ErrNoSecret
	}

	now := time.Now()
	claims.Subject = strconv.Itoa(userID)
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.tokenTTL))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Parse verifies the signature and decodes the claims. Tampering with any
// field of the token invalidates the signature.
func (c *Codec) Parse(tokenString string) (Claims, error) {
	if len(c.secret) == 0 {
		return Claims{}, ErrNoSecret
	}

	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Claims{}, ErrInvalidSignature
		}
		return Claims{}, ErrMalformed
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSignature
	}
	if _, err := claims.UserID(); err != nil {
		return Claims{}, ErrMalformed
	}
	return claims, nil
}
