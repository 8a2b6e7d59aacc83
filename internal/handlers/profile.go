package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/optima-medical/staffserver/internal/services"
	"github.com/optima-medical/staffserver/internal/storage"
	"github.com/optima-medical/staffserver/internal/store"
)

const maxAvatarBytes = 5 << 20

// ProfileHandler exposes profile reads, partial updates, and avatar upload.
type ProfileHandler struct {
	userService *services.UserService
	storage     *storage.Storage
}

func NewProfileHandler(userService *services.UserService, storage *storage.Storage) *ProfileHandler {
	return &ProfileHandler{userService: userService, storage: storage}
}

// ProfileRouter registers user profile routes on the given router.
func ProfileRouter(r chi.Router, h *ProfileHandler, gates *Gates) {
	r.Use(gates.RequireAuth)
	r.Get("/profile", h.Get)
	r.Put("/profile", h.Update)
	r.Post("/avatar", h.UploadAvatar)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type UpdateProfileRequest struct {
	Name            *string `json:"name"`
	PhoneNumber     *string `json:"phone_number"`
	Location        *string `json:"location"`
	AvatarURL       *string `json:"user_image_url"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
}

// Update applies a partial profile update and returns the authoritative
// updated row.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, services.ProfileUpdate{
		Name:            req.Name,
		PhoneNumber:     req.PhoneNumber,
		Location:        req.Location,
		AvatarURL:       req.AvatarURL,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case isValidationError(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update profile")
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UploadAvatar stores the uploaded image in object storage and points the
// profile at it.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.storage == nil {
		writeError(w, http.StatusNotImplemented, "avatar uploads are not configured")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "only image uploads are allowed")
		return
	}

	key := fmt.Sprintf("avatars/%d/%s%s", userID, uuid.NewString(), filepath.Ext(header.Filename))
	if err := h.storage.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	user, err := h.userService.SetAvatar(r.Context(), userID, h.storage.URL(key))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func isValidationError(err error) bool {
	return errors.Is(err, services.ErrNameTooShort) ||
		errors.Is(err, services.ErrPhoneTooLong) ||
		errors.Is(err, services.ErrLocationTooLong) ||
		errors.Is(err, services.ErrCurrentPasswordRequired) ||
		errors.Is(err, services.ErrCurrentPasswordWrong) ||
		errors.Is(err, services.ErrNewPasswordTooShort)
}
