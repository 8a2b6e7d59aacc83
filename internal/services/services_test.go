package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/optima-medical/staffserver/internal/store"
	"github.com/optima-medical/staffserver/types"
	"golang.org/x/crypto/bcrypt"
)

// memoryRepo is an in-memory UserRepository for service tests. It mirrors the
// SQL layer's semantics: single-row updates, ErrNotFound for missing ids, and
// empty strings clearing nullable columns.
type memoryRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*types.User

	getByIDErr     error
	recordLoginErr error

	logins  []int
	logouts []int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, users: make(map[int]*types.User)}
}

func (r *memoryRepo) add(user types.User) types.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	copied := user
	r.users[user.ID] = &copied
	return user
}

func (r *memoryRepo) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getByIDErr != nil {
		return types.User{}, r.getByIDErr
	}
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return *user, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return *user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memoryRepo) Create(_ context.Context, user types.User) (types.User, error) {
	return r.add(user), nil
}

func (r *memoryRepo) UpdateProfile(_ context.Context, id int, patch store.UserPatch) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.PhoneNumber != nil {
		user.PhoneNumber = nullable(*patch.PhoneNumber)
	}
	if patch.Location != nil {
		user.Location = nullable(*patch.Location)
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = nullable(*patch.AvatarURL)
	}
	if patch.HashedPassword != nil {
		user.HashedPassword = *patch.HashedPassword
	}
	user.UpdatedAt = time.Now()
	return *user, nil
}

func (r *memoryRepo) SetVerificationCode(_ context.Context, id int, code string, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.EmailCode = &code
	user.EmailCodeSentAt = &sentAt
	return nil
}

func (r *memoryRepo) MarkEmailVerified(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.EmailVerified = true
	user.EmailCode = nil
	user.EmailCodeSentAt = nil
	return nil
}

func (r *memoryRepo) RecordLogin(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recordLoginErr != nil {
		return r.recordLoginErr
	}
	r.logins = append(r.logins, id)
	if user, ok := r.users[id]; ok {
		user.LoggedInStatus = true
	}
	return nil
}

func (r *memoryRepo) RecordLogout(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logouts = append(r.logouts, id)
	if user, ok := r.users[id]; ok {
		user.LoggedInStatus = false
	}
	return nil
}

func patchAvatar(url string) store.UserPatch {
	return store.UserPatch{AvatarURL: &url}
}

func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// recordingNotifier captures outgoing verification codes.
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []sentCode
	fail  error
}

type sentCode struct {
	Email string
	Name  string
	Code  string
}

func (n *recordingNotifier) SendVerificationCode(_ context.Context, toEmail, toName, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, sentCode{Email: toEmail, Name: toName, Code: code})
	return nil
}

func (n *recordingNotifier) last() (sentCode, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentCode{}, false
	}
	return n.sent[len(n.sent)-1], true
}

func seedUser(repo *memoryRepo, email, password string, verified bool) types.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return repo.add(types.User{
		Name:           "Alice Smith",
		Email:          email,
		HashedPassword: string(hashed),
		EmailVerified:  verified,
		Role:           types.RoleEmployee,
	})
}
