// Package auth provides the pluggable authentication layer: an
// Authenticator interface with mock, local-registry, and federated
// variants, plus JWT session tokens and bcrypt password hashing.
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/blogdeck/internal/apperror"
	"github.com/sakif/blogdeck/internal/model"
)

// Authenticator turns credentials into a session identity. The session
// store calls Authenticate for login and Register for signup; which variant
// backs these calls is wired in cmd/server.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Register(ctx context.Context, email, password string) (*model.User, error)
}

// MockAuthenticator is the demo stub: any non-empty email/password pair
// succeeds, no credential is ever verified or stored, and Register behaves
// exactly like Authenticate. The user is derived deterministically from the
// email (Name is the local part) with a fresh time-ordered id.
//
// This reproduces the reference demo behavior. Use LocalAuthenticator when
// actual accounts are wanted.
type MockAuthenticator struct{}

var _ Authenticator = (*MockAuthenticator)(nil)

func NewMockAuthenticator() *MockAuthenticator {
	return &MockAuthenticator{}
}

func (a *MockAuthenticator) Authenticate(_ context.Context, email, password string) (*model.User, error) {
	return mockUser(email, password)
}

func (a *MockAuthenticator) Register(_ context.Context, email, password string) (*model.User, error) {
	return mockUser(email, password)
}

func mockUser(email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	name, _, _ := strings.Cut(email, "@")
	return &model.User{
		ID:        xid.New().String(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
	}, nil
}

// LocalAuthenticator keeps an in-memory account registry with bcrypt
// password hashes. Register rejects emails that already have an account;
// Authenticate rejects unknown emails and wrong passwords. It answers the
// open question the mock variant leaves unanswered: with this variant,
// signup and login are genuinely different operations.
type LocalAuthenticator struct {
	passwords *PasswordService

	mu       sync.Mutex
	accounts map[string]localAccount // keyed by email
}

type localAccount struct {
	user model.User
	hash string
}

var _ Authenticator = (*LocalAuthenticator)(nil)

func NewLocalAuthenticator(passwords *PasswordService) *LocalAuthenticator {
	return &LocalAuthenticator{
		passwords: passwords,
		accounts:  make(map[string]localAccount),
	}
}

func (a *LocalAuthenticator) Register(_ context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := a.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.accounts[email]; exists {
		return nil, apperror.Conflict("account", email)
	}

	name, _, _ := strings.Cut(email, "@")
	user := model.User{
		ID:        xid.New().String(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
	}
	a.accounts[email] = localAccount{user: user, hash: hash}

	u := user
	return &u, nil
}

func (a *LocalAuthenticator) Authenticate(_ context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	a.mu.Lock()
	account, exists := a.accounts[email]
	a.mu.Unlock()

	if !exists {
		return nil, apperror.Unauthenticated("unknown email or wrong password")
	}
	if err := a.passwords.Verify(account.hash, password); err != nil {
		return nil, apperror.Unauthenticated("unknown email or wrong password")
	}

	u := account.user
	return &u, nil
}
