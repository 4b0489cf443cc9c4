package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/sample_app/internal/models"
)

func (r *GormRepo) CreateMicropost(ctx context.Context, m *models.Micropost) error {
	return classify(r.DB.WithContext(ctx).Create(m).Error)
}

// DeleteMicropost only deletes posts owned by userID; anything else is ErrNotFound.
func (r *GormRepo) DeleteMicropost(ctx context.Context, userID, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Micropost{})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) ListMicroposts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Micropost, int64, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Micropost{}).Where("user_id = ?", userID)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	items := make([]models.Micropost, 0, limit)
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, 0, classify(err)
	}
	return items, total, nil
}
