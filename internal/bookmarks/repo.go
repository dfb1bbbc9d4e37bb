package bookmarks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/db/models"
)

// Repository is the persistence surface for bookmarks.
type Repository interface {
	Create(ctx context.Context, bookmark *models.Bookmark) error
	Delete(ctx context.Context, userID, businessID uuid.UUID) (bool, error)
	Exists(ctx context.Context, userID, businessID uuid.UUID) (bool, error)
	ListBusinessesByUser(ctx context.Context, userID uuid.UUID) ([]models.Business, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bookmarks repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, bookmark *models.Bookmark) error {
	return r.db.WithContext(ctx).Create(bookmark).Error
}

func (r *repository) Delete(ctx context.Context, userID, businessID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		Delete(&models.Bookmark{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Exists(ctx context.Context, userID, businessID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Bookmark{}).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListBusinessesByUser(ctx context.Context, userID uuid.UUID) ([]models.Business, error) {
	var rows []models.Business
	err := r.db.WithContext(ctx).
		Joins("JOIN bookmarks ON bookmarks.business_id = businesses.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at DESC").
		Find(&rows).Error
	return rows, err
}
