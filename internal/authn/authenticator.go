package authn

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Skotchmaster/sample_app/internal/credentials"
	"github.com/Skotchmaster/sample_app/internal/hash"
	"github.com/Skotchmaster/sample_app/internal/logging"
	"github.com/Skotchmaster/sample_app/internal/models"
	"github.com/Skotchmaster/sample_app/internal/repo"
	"github.com/Skotchmaster/sample_app/internal/session"
)

// InvalidCredentialsMessage is shown for every failed sign-in, whatever the cause.
const InvalidCredentialsMessage = "Invalid email/password combination"

var ErrInvalidCredentials = errors.New("invalid email/password combination")

type Starter interface {
	Start(ctx context.Context, userID uuid.UUID, meta session.Meta) (*session.Session, error)
}

type Authenticator struct {
	Credentials *credentials.Store
	Sessions    Starter
}

type Result struct {
	User    *models.User
	Session *session.Session
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// burnCompare spends one bcrypt comparison so unknown emails take as long as wrong passwords.
func burnCompare(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = hash.HashPassword("not-a-real-password")
	})
	_ = hash.CheckPassword(dummyHash, password)
}

func (a *Authenticator) Authenticate(ctx context.Context, email, password string, meta session.Meta) (*Result, error) {
	l := logging.FromContext(ctx).With("svc", "authn.authenticate")

	user, err := a.Credentials.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		burnCompare(password)
		l.Info("signin_rejected", "reason", "unknown_email")
		return nil, ErrInvalidCredentials
	case err != nil:
		l.Error("signin_error", "reason", "credential lookup failed", "error", err)
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !a.Credentials.VerifyPassword(user, password) {
		l.Info("signin_rejected", "reason", "wrong_password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	s, err := a.Sessions.Start(ctx, user.ID, meta)
	if err != nil {
		l.Error("signin_error", "reason", "cannot start session", "error", err)
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	return &Result{User: user, Session: s}, nil
}
