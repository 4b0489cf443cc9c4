package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Skotchmaster/sample_app/internal/models"
)

const MaxMicropostLength = 140

type MicropostRepo interface {
	CreateMicropost(ctx context.Context, m *models.Micropost) error
	DeleteMicropost(ctx context.Context, userID, id uuid.UUID) error
	ListMicroposts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Micropost, int64, error)
}

type MicropostService struct {
	Repo MicropostRepo
}

func (s *MicropostService) Create(ctx context.Context, owner *models.User, content string) (*models.Micropost, error) {
	v := &ValidationError{}
	switch {
	case strings.TrimSpace(content) == "":
		v.add("content", "can't be blank")
	case utf8.RuneCountInString(content) > MaxMicropostLength:
		v.add("content", fmt.Sprintf("is too long (maximum is %d characters)", MaxMicropostLength))
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	m := &models.Micropost{UserID: owner.ID, Content: content}
	if err := s.Repo.CreateMicropost(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Destroy returns repo.ErrNotFound when the post does not belong to owner.
func (s *MicropostService) Destroy(ctx context.Context, owner *models.User, id uuid.UUID) error {
	return s.Repo.DeleteMicropost(ctx, owner.ID, id)
}

func (s *MicropostService) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) (Page[models.Micropost], error) {
	items, total, err := s.Repo.ListMicroposts(ctx, userID, offset, limit)
	if err != nil {
		return Page[models.Micropost]{}, err
	}
	return Page[models.Micropost]{Total: total, Items: items}, nil
}
