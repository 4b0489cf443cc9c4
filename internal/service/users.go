package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Skotchmaster/sample_app/internal/credentials"
	"github.com/Skotchmaster/sample_app/internal/hash"
	"github.com/Skotchmaster/sample_app/internal/logging"
	"github.com/Skotchmaster/sample_app/internal/models"
	"github.com/Skotchmaster/sample_app/internal/mykafka"
	"github.com/Skotchmaster/sample_app/internal/repo"
	"github.com/Skotchmaster/sample_app/internal/service/search"
)

const (
	MaxNameLength     = 50
	MaxEmailLength    = 255
	MinPasswordLength = 6
	// MaxPasswordBytes is the most bcrypt will hash.
	MaxPasswordBytes = 72
)

var emailPattern = regexp.MustCompile(`^[\w+\-.]+@[a-z\d\-]+(\.[a-z\d\-]+)*\.[a-z]+$`)

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	CountUsers(ctx context.Context) (int64, error)
	ListUsers(ctx context.Context, offset, limit int) ([]models.User, int64, error)
}

type Directory interface {
	IndexUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q string, from, size int) (search.Results, error)
}

type UserService struct {
	Repo   UserRepo
	Events *mykafka.UserEvents
	// Directory is optional; without it Search returns ErrSearchDisabled.
	Directory Directory
}

type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// UpdateInput leaves the password unchanged when Password is empty.
type UpdateInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

type Page[T any] struct {
	Total int64
	Items []T
}

func validateProfile(v *ValidationError, name, email string) {
	switch n := utf8.RuneCountInString(name); {
	case strings.TrimSpace(name) == "":
		v.add("name", "can't be blank")
	case n > MaxNameLength:
		v.add("name", fmt.Sprintf("is too long (maximum is %d characters)", MaxNameLength))
	}

	switch {
	case email == "":
		v.add("email", "can't be blank")
	case len(email) > MaxEmailLength:
		v.add("email", fmt.Sprintf("is too long (maximum is %d characters)", MaxEmailLength))
	case !emailPattern.MatchString(email) || strings.Contains(email, ".."):
		v.add("email", "is invalid")
	}
}

func validatePassword(v *ValidationError, password, confirmation string) {
	switch {
	case strings.TrimSpace(password) == "":
		v.add("password", "can't be blank")
	case utf8.RuneCountInString(password) < MinPasswordLength:
		v.add("password", fmt.Sprintf("is too short (minimum is %d characters)", MinPasswordLength))
	case len(password) > MaxPasswordBytes:
		v.add("password", fmt.Sprintf("is too long (maximum is %d bytes)", MaxPasswordBytes))
	case password != confirmation:
		v.add("password_confirmation", "doesn't match Password")
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := credentials.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	v := &ValidationError{}
	validateProfile(v, name, email)
	validatePassword(v, in.Password, in.PasswordConfirmation)
	if err := v.orNil(); err != nil {
		return nil, err
	}

	pw, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{Name: name, Email: email, PasswordHash: pw}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		return nil, mapConflict(err)
	}

	logging.FromContext(ctx).Info("user_registered", "user_id", u.ID)
	s.Events.Emit(ctx, mykafka.UserEvent{Type: mykafka.UserCreated, UserID: u.ID, Name: u.Name, Email: u.Email, ActorID: u.ID})
	s.mirror(ctx, u)
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.Repo.FindUserByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, offset, limit int) (Page[models.User], error) {
	items, total, err := s.Repo.ListUsers(ctx, offset, limit)
	if err != nil {
		return Page[models.User]{}, err
	}
	return Page[models.User]{Total: total, Items: items}, nil
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.Repo.CountUsers(ctx)
}

// Update assumes the caller was already authorized for the target user.
func (s *UserService) Update(ctx context.Context, actor *models.User, id uuid.UUID, in UpdateInput) (*models.User, error) {
	u, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := credentials.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	v := &ValidationError{}
	validateProfile(v, name, email)
	if in.Password != "" || in.PasswordConfirmation != "" {
		validatePassword(v, in.Password, in.PasswordConfirmation)
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	u.Name = name
	u.Email = email
	if in.Password != "" {
		pw, err := hash.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = pw
	}

	if err := s.Repo.SaveUser(ctx, u); err != nil {
		return nil, mapConflict(err)
	}

	s.Events.Emit(ctx, mykafka.UserEvent{Type: mykafka.UserUpdated, UserID: u.ID, Name: u.Name, Email: u.Email, ActorID: actorID(actor)})
	s.mirror(ctx, u)
	return u, nil
}

// Destroy removes the user with its sessions and microposts. Deleting your
// own account is always rejected, whoever asks.
func (s *UserService) Destroy(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if actor != nil && actor.ID == id {
		return ErrSelfDestroy
	}
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("user_destroyed", "user_id", id, "actor_id", actorID(actor))
	s.Events.Emit(ctx, mykafka.UserEvent{Type: mykafka.UserDestroyed, UserID: id, ActorID: actorID(actor)})
	if s.Directory != nil {
		if err := s.Directory.DeleteUser(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("directory_delete_failed", "user_id", id, "error", err)
		}
	}
	return nil
}

func (s *UserService) SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error {
	return s.Repo.SetAdmin(ctx, id, admin)
}

func (s *UserService) Search(ctx context.Context, q string, offset, limit int) (search.Results, error) {
	if s.Directory == nil {
		return search.Results{}, ErrSearchDisabled
	}
	return s.Directory.Search(ctx, q, offset, limit)
}

func (s *UserService) mirror(ctx context.Context, u *models.User) {
	if s.Directory == nil {
		return
	}
	if err := s.Directory.IndexUser(ctx, u); err != nil {
		logging.FromContext(ctx).Warn("directory_index_failed", "user_id", u.ID, "error", err)
	}
}

func mapConflict(err error) error {
	if errors.Is(err, repo.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

func actorID(u *models.User) uuid.UUID {
	if u == nil {
		return uuid.Nil
	}
	return u.ID
}
