// Package credentials looks users up by identity and checks their passwords.
package credentials

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/sample_app/internal/hash"
	"github.com/Skotchmaster/sample_app/internal/models"
)

type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Store reads never mutate anything. A missing user is reported as
// repo.ErrNotFound, which callers treat as an ordinary answer.
type Store struct {
	Users UserFinder
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.Users.FindUserByEmail(ctx, NormalizeEmail(email))
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.Users.FindUserByID(ctx, id)
}

func (s *Store) VerifyPassword(u *models.User, plaintext string) bool {
	if u == nil {
		return false
	}
	return hash.CheckPassword(u.PasswordHash, plaintext)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
