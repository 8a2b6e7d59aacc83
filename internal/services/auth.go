package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/optima-medical/staffserver/internal/auth"
	"github.com/optima-medical/staffserver/internal/store"
	"github.com/optima-medical/staffserver/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// response cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService issues and refreshes signed credentials.
type AuthService struct {
	repo   UserRepository
	codec  *auth.Codec
	logger *zap.Logger
}

func NewAuthService(repo UserRepository, codec *auth.Codec, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		codec:  codec,
		logger: logger.Named("auth"),
	}
}

// Authenticate verifies an (email, password) pair and issues a credential
// whose verification and avatar snapshots reflect the row at this instant.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (auth.Claims, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return auth.Claims{}, "", ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return auth.Claims{}, "", ErrInvalidCredentials
		}
		return auth.Claims{}, "", fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return auth.Claims{}, "", ErrInvalidCredentials
	}

	// Bookkeeping only; a failure here must not fail the login.
	if err := s.repo.RecordLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record login", zap.Int("user_id", user.ID), zap.Error(err))
	}

	claims := claimsFromUser(user)
	token, err := s.codec.Issue(user.ID, claims)
	if err != nil {
		return auth.Claims{}, "", err
	}
	return claims, token, nil
}

// Refresh reconciles a credential against the users row: the verification
// flag and avatar are re-read, everything else carries over unchanged. It is
// read-only on the store and idempotent. When the row cannot be read the
// prior claims are re-signed as-is; verification status is advisory at this
// layer, and the page-level gate holds the authoritative check.
func (s *AuthService) Refresh(ctx context.Context, claims auth.Claims) (auth.Claims, string, error) {
	userID, err := claims.UserID()
	if err != nil {
		return auth.Claims{}, "", err
	}

	user, lookupErr := s.repo.GetByID(ctx, userID)
	if lookupErr == nil {
		claims.EmailVerified = user.EmailVerified
		claims.AvatarURL = stringOrEmpty(user.AvatarURL)
	} else {
		s.logger.Warn("credential refresh could not read user, keeping prior claims",
			zap.Int("user_id", userID), zap.Error(lookupErr))
	}

	token, err := s.codec.Issue(userID, claims)
	if err != nil {
		return auth.Claims{}, "", err
	}
	return claims, token, nil
}

// Logout clears the logged-in flag; best-effort.
func (s *AuthService) Logout(ctx context.Context, userID int) {
	if err := s.repo.RecordLogout(ctx, userID); err != nil {
		s.logger.Warn("failed to record logout", zap.Int("user_id", userID), zap.Error(err))
	}
}

func claimsFromUser(user types.User) auth.Claims {
	return auth.Claims{
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
		AvatarURL:     stringOrEmpty(user.AvatarURL),
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
