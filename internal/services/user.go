package services

import (
	"context"
	"errors"
	"strings"

	"github.com/optima-medical/staffserver/internal/store"
	"github.com/optima-medical/staffserver/types"
	"golang.org/x/crypto/bcrypt"
)

// Profile validation errors; handlers surface their messages directly.
var (
	ErrNameTooShort            = errors.New("name must be at least 2 characters long")
	ErrPhoneTooLong            = errors.New("phone number must be 20 characters or less")
	ErrLocationTooLong         = errors.New("location must be 255 characters or less")
	ErrCurrentPasswordRequired = errors.New("current password is required to change password")
	ErrCurrentPasswordWrong    = errors.New("current password is incorrect")
	ErrNewPasswordTooShort     = errors.New("new password must be at least 8 characters long")
)

// ProfileUpdate is a partial update: nil fields are untouched, empty strings
// clear the nullable ones.
type ProfileUpdate struct {
	Name            *string
	PhoneNumber     *string
	Location        *string
	AvatarURL       *string
	CurrentPassword string
	NewPassword     string
}

// UserService encapsulates profile use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile validates the requested changes and applies them as a single
// atomic row update, returning the authoritative updated row.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, upd ProfileUpdate) (types.User, error) {
	patch := store.UserPatch{}

	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		name := strings.TrimSpace(*upd.Name)
		if len(name) < 2 {
			return types.User{}, ErrNameTooShort
		}
		patch.Name = &name
	}
	if upd.PhoneNumber != nil {
		phone := strings.TrimSpace(*upd.PhoneNumber)
		if len(phone) > 20 {
			return types.User{}, ErrPhoneTooLong
		}
		patch.PhoneNumber = &phone
	}
	if upd.Location != nil {
		location := strings.TrimSpace(*upd.Location)
		if len(location) > 255 {
			return types.User{}, ErrLocationTooLong
		}
		patch.Location = &location
	}
	if upd.AvatarURL != nil {
		avatar := strings.TrimSpace(*upd.AvatarURL)
		patch.AvatarURL = &avatar
	}

	if upd.NewPassword != "" {
		if upd.CurrentPassword == "" {
			return types.User{}, ErrCurrentPasswordRequired
		}
		user, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			return types.User{}, err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(upd.CurrentPassword)); err != nil {
			return types.User{}, ErrCurrentPasswordWrong
		}
		if len(upd.NewPassword) < 8 {
			return types.User{}, ErrNewPasswordTooShort
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(upd.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return types.User{}, err
		}
		hashedStr := string(hashed)
		patch.HashedPassword = &hashedStr
	}

	return s.repo.UpdateProfile(ctx, userID, patch)
}

// SetAvatar records a freshly uploaded avatar reference.
func (s *UserService) SetAvatar(ctx context.Context, userID int, avatarURL string) (types.User, error) {
	return s.repo.UpdateProfile(ctx, userID, store.UserPatch{AvatarURL: &avatarURL})
}
