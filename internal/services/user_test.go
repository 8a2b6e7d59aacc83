package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func strPtr(s string) *string { return &s }

func TestUpdateProfile_Validations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		upd  ProfileUpdate
		want error
	}{
		{"name too short", ProfileUpdate{Name: strPtr(" a ")}, ErrNameTooShort},
		{"phone too long", ProfileUpdate{PhoneNumber: strPtr(strings.Repeat("1", 21))}, ErrPhoneTooLong},
		{"location too long", ProfileUpdate{Location: strPtr(strings.Repeat("x", 256))}, ErrLocationTooLong},
		{"missing current password", ProfileUpdate{NewPassword: "newpassword1"}, ErrCurrentPasswordRequired},
		{"wrong current password", ProfileUpdate{CurrentPassword: "wrong", NewPassword: "newpassword1"}, ErrCurrentPasswordWrong},
		{"new password too short", ProfileUpdate{CurrentPassword: "password123", NewPassword: "short"}, ErrNewPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			user := seedUser(repo, "alice@example.com", "password123", true)
			svc := NewUserService(repo)

			_, err := svc.UpdateProfile(context.Background(), user.ID, tt.upd)
			require.ErrorIs(t, err, tt.want)

			// Failed validation must not change the row.
			row, getErr := repo.GetByID(context.Background(), user.ID)
			require.NoError(t, getErr)
			assert.Equal(t, user.Name, row.Name)
			assert.Equal(t, user.HashedPassword, row.HashedPassword)
		})
	}
}

func TestUpdateProfile_AppliesPartialPatch(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	user := seedUser(repo, "alice@example.com", "password123", true)
	svc := NewUserService(repo)

	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
		Name:        strPtr("  Alice Cooper  "),
		PhoneNumber: strPtr("555-0100"),
		Location:    strPtr("Phoenix, AZ"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice Cooper", updated.Name)
	require.NotNil(t, updated.PhoneNumber)
	assert.Equal(t, "555-0100", *updated.PhoneNumber)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Phoenix, AZ", *updated.Location)
	assert.Equal(t, user.Email, updated.Email)
}

func TestUpdateProfile_EmptyStringClearsNullable(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	user := seedUser(repo, "alice@example.com", "password123", true)
	svc := NewUserService(repo)

	_, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
		PhoneNumber: strPtr("555-0100"),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
		PhoneNumber: strPtr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.PhoneNumber)
}

func TestUpdateProfile_PasswordChange(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	user := seedUser(repo, "alice@example.com", "password123", true)
	svc := NewUserService(repo)

	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
		CurrentPassword: "password123",
		NewPassword:     "a-new-password",
	})
	require.NoError(t, err)

	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.HashedPassword), []byte("a-new-password")))
	require.Error(t, bcrypt.CompareHashAndPassword([]byte(updated.HashedPassword), []byte("password123")))
}

func TestUpdateProfile_NoChanges(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	user := seedUser(repo, "alice@example.com", "password123", true)
	svc := NewUserService(repo)

	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, user.ID, updated.ID)
	assert.Equal(t, user.Name, updated.Name)
}
