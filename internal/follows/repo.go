package follows

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/db/models"
)

// Repository is the persistence surface for follows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, userID, businessID uuid.UUID) (bool, error)
	Exists(ctx context.Context, userID, businessID uuid.UUID) (bool, error)
	ListBusinessesByUser(ctx context.Context, userID uuid.UUID) ([]models.Business, error)
	AdjustFollowerCount(ctx context.Context, businessID uuid.UUID, delta int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a follows repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Create(follow).Error
}

func (r *repository) Delete(ctx context.Context, userID, businessID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Exists(ctx context.Context, userID, businessID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListBusinessesByUser(ctx context.Context, userID uuid.UUID) ([]models.Business, error) {
	var rows []models.Business
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.business_id = businesses.id").
		Where("follows.user_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) AdjustFollowerCount(ctx context.Context, businessID uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.Business{}).
		Where("id = ?", businessID).
		Update("follower_count", gorm.Expr("GREATEST(follower_count + ?, 0)", delta)).Error
}
