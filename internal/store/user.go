package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/optima-medical/staffserver/types"
)

const userColumns = `id, name, email, hashed_password, phone_number, user_image_url,
		email_verified, email_code, email_code_sent_at, onboarded,
		password_reset_code, password_reset_expired_date, role,
		logged_in_status, last_online, location, created_at, updated_at`

// UserRepository handles persistence for staff accounts. Every mutation is a
// single-row UPDATE; no invariant here spans multiple rows, so no
// transactions are needed.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmail looks up a user by address. Callers are expected to pass the
// address already lowercased; the column stores lowercase values.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (types.User, error) {
	var user types.User
	err := scanUser(r.db.QueryRowContext(ctx, query, arg), &user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = types.RoleEmployee
	}

	const query = `
		INSERT INTO users (name, email, hashed_password, phone_number, user_image_url,
			email_verified, role, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.HashedPassword,
		user.PhoneNumber,
		user.AvatarURL,
		user.EmailVerified,
		user.Role,
		user.Location,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// UserPatch carries a partial profile update. Nil fields are left unchanged;
// for the nullable columns an explicit empty string clears the value.
type UserPatch struct {
	Name           *string
	PhoneNumber    *string
	Location       *string
	AvatarURL      *string
	HashedPassword *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.PhoneNumber == nil && p.Location == nil &&
		p.AvatarURL == nil && p.HashedPassword == nil
}

// UpdateProfile applies a patch as one atomic row update and returns the
// updated row.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int, patch UserPatch) (types.User, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	setClauses := make([]string, 0, 6)
	args := make([]any, 0, 6)
	add := func(clause string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf(clause, len(args)))
	}

	if patch.Name != nil {
		add("name = $%d", *patch.Name)
	}
	if patch.PhoneNumber != nil {
		add("phone_number = NULLIF($%d, '')", *patch.PhoneNumber)
	}
	if patch.Location != nil {
		add("location = NULLIF($%d, '')", *patch.Location)
	}
	if patch.AvatarURL != nil {
		add("user_image_url = NULLIF($%d, '')", *patch.AvatarURL)
	}
	if patch.HashedPassword != nil {
		add("hashed_password = $%d", *patch.HashedPassword)
	}
	setClauses = append(setClauses, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING `+userColumns,
		strings.Join(setClauses, ", "), len(args))

	var user types.User
	if err := scanUser(r.db.QueryRowContext(ctx, query, args...), &user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// SetVerificationCode stores a freshly issued challenge, overwriting any
// outstanding one. The code and its issue timestamp move together.
func (r *UserRepository) SetVerificationCode(ctx context.Context, id int, code string, sentAt time.Time) error {
	const query = `
		UPDATE users
		SET email_code = $1, email_code_sent_at = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`
	return r.execOne(ctx, query, code, sentAt, id)
}

// MarkEmailVerified flips the authoritative flag and clears the challenge in
// the same row update.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id int) error {
	const query = `
		UPDATE users
		SET email_verified = TRUE, email_code = NULL, email_code_sent_at = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	return r.execOne(ctx, query, id)
}

// RecordLogin updates the login bookkeeping fields.
func (r *UserRepository) RecordLogin(ctx context.Context, id int) error {
	const query = `
		UPDATE users
		SET last_online = CURRENT_TIMESTAMP, logged_in_status = TRUE
		WHERE id = $1`
	return r.execOne(ctx, query, id)
}

// RecordLogout clears the logged-in flag.
func (r *UserRepository) RecordLogout(ctx context.Context, id int) error {
	const query = `
		UPDATE users
		SET logged_in_status = FALSE
		WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *UserRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, user *types.User) error {
	return row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.HashedPassword,
		&user.PhoneNumber,
		&user.AvatarURL,
		&user.EmailVerified,
		&user.EmailCode,
		&user.EmailCodeSentAt,
		&user.Onboarded,
		&user.PasswordResetCode,
		&user.PasswordResetExpiredDate,
		&user.Role,
		&user.LoggedInStatus,
		&user.LastOnline,
		&user.Location,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}
