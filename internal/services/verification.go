package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/optima-medical/staffserver/internal/store"
	"go.uber.org/zap"
)

// Outcome is the result of a verification attempt.
type Outcome int

const (
	OutcomeVerified Outcome = iota
	OutcomeAlreadyVerified
	OutcomeInvalid
	OutcomeNotFound
)

const codeLength = 6

// Notifier delivers a verification code to an address. Fire-and-forget from
// the subsystem's point of view: no retries here, failures surface to the
// caller of IssueChallenge.
type Notifier interface {
	SendVerificationCode(ctx context.Context, toEmail, toName, code string) error
}

// VerificationService owns the one-time email code lifecycle: issue, expire,
// consume. At most one challenge is live per user; issuing a new code
// overwrites the old one.
type VerificationService struct {
	repo     UserRepository
	notifier Notifier
	codeTTL  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewVerificationService(repo UserRepository, notifier Notifier, codeTTL time.Duration, logger *zap.Logger) *VerificationService {
	if codeTTL <= 0 {
		codeTTL = 10 * time.Minute
	}
	return &VerificationService{
		repo:     repo,
		notifier: notifier,
		codeTTL:  codeTTL,
		logger:   logger.Named("verification"),
		now:      time.Now,
	}
}

// IssueChallenge generates a fresh 6-digit code, persists it with its issue
// timestamp in one row update, and hands it to the notifier. Collisions
// across users are fine; only unpredictability and the short lifetime
// matter.
func (s *VerificationService) IssueChallenge(ctx context.Context, userID int) (string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}

	if err := s.repo.SetVerificationCode(ctx, userID, code, s.now()); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, user.Name, code); err != nil {
		return "", fmt.Errorf("send verification email: %w", err)
	}

	s.logger.Info("verification challenge issued", zap.Int("user_id", userID))
	return code, nil
}

// Verify consumes an outstanding challenge. Already-verified rows
// short-circuit without comparing anything, a code older than the TTL is
// treated exactly like a mismatch, and a failed attempt leaves the row
// untouched. On match the flag flips and the code clears in one atomic row
// update.
func (s *VerificationService) Verify(ctx context.Context, userID int, submitted string) (Outcome, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return OutcomeNotFound, nil
		}
		return OutcomeInvalid, err
	}

	if user.EmailVerified {
		return OutcomeAlreadyVerified, nil
	}

	submitted = strings.TrimSpace(submitted)
	if submitted == "" || user.EmailCode == nil || *user.EmailCode == "" || *user.EmailCode != submitted {
		return OutcomeInvalid, nil
	}
	if user.EmailCodeSentAt == nil || s.now().Sub(*user.EmailCodeSentAt) > s.codeTTL {
		// Expired codes verify like wrong ones; the caller must re-issue.
		return OutcomeInvalid, nil
	}

	if err := s.repo.MarkEmailVerified(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return OutcomeNotFound, nil
		}
		return OutcomeInvalid, err
	}

	s.logger.Info("email verified", zap.Int("user_id", userID))
	return OutcomeVerified, nil
}

func generateCode() (string, error) {
	digits := make([]byte, codeLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
