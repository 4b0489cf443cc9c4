package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/sample_app/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return classify(r.DB.WithContext(ctx).Create(s).Error)
}

func (r *GormRepo) FindSessionByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&s).Error; err != nil {
		return nil, classify(err)
	}
	return &s, nil
}

// DeleteSessionByTokenHash is a no-op for unknown hashes.
func (r *GormRepo) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	return classify(r.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.Session{}).Error)
}

func (r *GormRepo) DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{})
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormRepo) CountSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Session{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, classify(err)
	}
	return count, nil
}
