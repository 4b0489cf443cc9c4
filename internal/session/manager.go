// Package session issues, resolves and revokes login sessions.
//
// A session token is an HS256 JWT carrying the session id (jti) and the user
// id (sub). The signature lets forged or garbled tokens be rejected without a
// store round trip; the stored row, keyed by the token's sha256, stays the
// source of truth for expiry and revocation.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/thejerf/abtime"

	"github.com/Skotchmaster/sample_app/internal/logging"
	"github.com/Skotchmaster/sample_app/internal/models"
	"github.com/Skotchmaster/sample_app/internal/repo"
)

const (
	DefaultTTL     = 30 * 24 * time.Hour
	DefaultTimeout = 2 * time.Second
)

var ErrNoSecret = errors.New("session secret is empty")

type Store interface {
	CreateSession(ctx context.Context, s *models.Session) error
	FindSessionByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error
	DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Meta is recorded on the session row for auditing only.
type Meta struct {
	IPAddress string
	UserAgent string
}

type Session struct {
	Token     string
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Manager struct {
	Store   Store
	Secret  []byte
	TTL     time.Duration
	Timeout time.Duration
	Clock   abtime.AbstractTime
}

func (m *Manager) now() time.Time {
	if m.Clock == nil {
		return time.Now().UTC()
	}
	return m.Clock.Now().UTC()
}

func (m *Manager) ttl() time.Duration {
	if m.TTL <= 0 {
		return DefaultTTL
	}
	return m.TTL
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	d := m.Timeout
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (m *Manager) Start(ctx context.Context, userID uuid.UUID, meta Meta) (*Session, error) {
	if len(m.Secret) == 0 {
		return nil, ErrNoSecret
	}

	now := m.now()
	exp := now.Add(m.ttl())
	id := uuid.New()

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ID:        id.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	row := models.Session{
		ID:        id,
		TokenHash: Sha256Hex(token),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: exp,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	if err := m.Store.CreateSession(ctx, &row); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	return &Session{
		Token:     token,
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: exp,
	}, nil
}

func (m *Manager) parse(token string) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	tkn, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &claims, nil
}

// Resolve returns the user behind token, or nil when the token is unknown,
// malformed, expired, or points at a user that no longer exists. A non-nil
// error always means the store could not answer. Expiry is never extended.
func (m *Manager) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	tokenHash := Sha256Hex(token)

	claims, err := m.parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			m.purge(ctx, tokenHash, "expired")
		}
		return nil, nil
	}

	lookupCtx, cancel := m.withTimeout(ctx)
	defer cancel()

	row, err := m.Store.FindSessionByTokenHash(lookupCtx, tokenHash)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if row.ID.String() != claims.ID || row.UserID.String() != claims.Subject {
		return nil, nil
	}

	if !m.now().Before(row.ExpiresAt) {
		m.purge(ctx, tokenHash, "expired")
		return nil, nil
	}

	user, err := m.Store.FindUserByID(lookupCtx, row.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		m.purge(ctx, tokenHash, "user_missing")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session user: %w", err)
	}
	return user, nil
}

// purge failures only delay cleanup; the session is already known to be invalid.
func (m *Manager) purge(ctx context.Context, tokenHash, reason string) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	if err := m.Store.DeleteSessionByTokenHash(ctx, tokenHash); err != nil {
		logging.FromContext(ctx).Warn("session_purge_failed", "reason", reason, "error", err)
	}
}

// Revoke is idempotent: unknown, malformed or already revoked tokens are a no-op.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	if err := m.Store.DeleteSessionByTokenHash(ctx, Sha256Hex(token)); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (m *Manager) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	n, err := m.Store.DeleteSessionsByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return n, nil
}
