package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/db/models"
)

// Repository is the persistence surface for reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	FindByUserAndBusiness(ctx context.Context, userID, businessID uuid.UUID) (*models.Review, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]models.Review, error)
	RefreshBusinessRating(ctx context.Context, businessID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reviews repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *repository) Update(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *repository) FindByUserAndBusiness(ctx context.Context, userID, businessID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

// RefreshBusinessRating recomputes the denormalized aggregate from the
// review rows, so concurrent writers converge on the same numbers.
func (r *repository) RefreshBusinessRating(ctx context.Context, businessID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE businesses SET
			rating_average = COALESCE((SELECT AVG(rating) FROM reviews WHERE business_id = ?), 0),
			rating_count = (SELECT COUNT(*) FROM reviews WHERE business_id = ?)
		WHERE id = ?`,
		businessID, businessID, businessID).Error
}
