// Package authpw signs admins in with an email and bcrypt-hashed password.
package authpw

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"portfolio/api/internal/rbac"
	"portfolio/api/internal/store"
	"portfolio/api/internal/util"
)

const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("a valid email is required")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

type AdminStore interface {
	GetAdminByEmail(ctx context.Context, email string) (store.Admin, error)
	UpsertAdmin(ctx context.Context, admin store.Admin) (store.Admin, error)
}

type Service struct {
	store AdminStore
	cost  int
}

func NewService(store AdminStore) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost}
}

// SignIn returns the admin when the password matches. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (store.Admin, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return store.Admin{}, ErrInvalidCredentials
	}
	admin, err := s.store.GetAdminByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Admin{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.Admin{}, fmt.Errorf("lookup admin: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return store.Admin{}, ErrInvalidCredentials
	}
	return admin, nil
}

// SetPassword creates the admin or replaces its password, display name and role.
func (s *Service) SetPassword(ctx context.Context, email, displayName, password string, role rbac.Role) (store.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return store.Admin{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return store.Admin{}, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return store.Admin{}, fmt.Errorf("hash password: %w", err)
	}
	if strings.TrimSpace(displayName) == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}
	return s.store.UpsertAdmin(ctx, store.Admin{
		ID:           util.NewID("adm"),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		Role:         string(rbac.Normalize(string(role))),
	})
}

// EnsureAdmin provisions an owner account once; an existing admin with the
// same email is left untouched.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.store.GetAdminByEmail(ctx, strings.TrimSpace(email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	if _, err := s.SetPassword(ctx, email, "", password, rbac.RoleOwner); err != nil {
		return false, err
	}
	return true, nil
}
