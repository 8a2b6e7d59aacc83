package services

import (
	"context"
	"time"

	"github.com/optima-medical/staffserver/internal/store"
	"github.com/optima-medical/staffserver/types"
)

// UserRepository defines the record-store operations the services need:
// atomic single-row reads and updates keyed by id or email.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateProfile(ctx context.Context, id int, patch store.UserPatch) (types.User, error)
	SetVerificationCode(ctx context.Context, id int, code string, sentAt time.Time) error
	MarkEmailVerified(ctx context.Context, id int) error
	RecordLogin(ctx context.Context, id int) error
	RecordLogout(ctx context.Context, id int) error
}
