package types

import "time"

// Roles a staff account can hold.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
	RoleProvider = "provider"
	RoleManager  = "manager"
)

// ValidRole reports whether role is one of the known staff roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEmployee, RoleProvider, RoleManager:
		return true
	}
	return false
}

// User represents a staff account row. The row is the system of record for
// email verification: EmailVerified is authoritative, and any copy of it
// carried inside a signed credential is only a snapshot.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is the user's address, stored lowercase and unique.
	Email string `json:"email" db:"email"`

	// HashedPassword stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	HashedPassword string `json:"-" db:"hashed_password"`

	// PhoneNumber is an optional contact number.
	PhoneNumber *string `json:"phone_number" db:"phone_number"`

	// AvatarURL points at the user's profile image, if any.
	AvatarURL *string `json:"user_image_url" db:"user_image_url"`

	// EmailVerified reports whether the address has been proven via a
	// one-time code. Cleared challenges and this flag move together.
	EmailVerified bool `json:"email_verified" db:"email_verified"`

	// EmailCode is the outstanding verification code, nil when no
	// challenge is live.
	EmailCode *string `json:"-" db:"email_code"`

	// EmailCodeSentAt records when the outstanding code was issued; the
	// code stops verifying ten minutes later.
	EmailCodeSentAt *time.Time `json:"-" db:"email_code_sent_at"`

	// Onboarded reports whether the user completed first-run setup.
	Onboarded bool `json:"onboarded" db:"onboarded"`

	// PasswordResetCode and PasswordResetExpiredDate back the password
	// reset flow.
	PasswordResetCode        *string    `json:"-" db:"password_reset_code"`
	PasswordResetExpiredDate *time.Time `json:"-" db:"password_reset_expired_date"`

	// Role indicates the user's authorization level within the system.
	Role string `json:"role" db:"role"`

	// LoggedInStatus and LastOnline are best-effort login bookkeeping.
	LoggedInStatus bool       `json:"logged_in_status" db:"logged_in_status"`
	LastOnline     *time.Time `json:"last_online" db:"last_online"`

	// Location is an optional free-form location string.
	Location *string `json:"location" db:"location"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
