package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/optima-medical/staffserver/internal/services"
	"github.com/optima-medical/staffserver/internal/store"
)

// VerificationHandler exposes the email-verification challenge lifecycle.
type VerificationHandler struct {
	verification *services.VerificationService
}

func NewVerificationHandler(verification *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

// Send issues a fresh challenge for the current user and emails the code.
// Re-sending supersedes any outstanding code.
func (h *VerificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if _, err := h.verification.IssueChallenge(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to send verification code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent successfully"})
}

type VerifyRequest struct {
	Code string `json:"code"`
}

// Verify consumes the submitted code. Input is sanitized here: anything that
// is not exactly six digits after stripping non-digit characters never
// reaches the code manager.
func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	code, ok := sanitizeCode(req.Code)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid verification code")
		return
	}

	outcome, err := h.verification.Verify(r.Context(), userID, code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to verify email")
		return
	}

	switch outcome {
	case services.OutcomeVerified:
		writeJSON(w, http.StatusOK, map[string]string{"message": "email verified successfully"})
	case services.OutcomeAlreadyVerified:
		writeJSON(w, http.StatusOK, map[string]string{"message": "email already verified"})
	case services.OutcomeNotFound:
		writeError(w, http.StatusNotFound, "user not found")
	default:
		writeError(w, http.StatusBadRequest, "invalid verification code")
	}
}

// sanitizeCode strips everything that is not a digit and accepts only an
// exact six-digit result.
func sanitizeCode(input string) (string, bool) {
	var digits strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	code := digits.String()
	if len(code) != 6 {
		return "", false
	}
	return code, true
}
