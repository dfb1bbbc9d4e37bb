package businesses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
)

// Repository is the persistence surface for businesses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, business *models.Business) (*models.Business, error)
	Update(ctx context.Context, business *models.Business) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Business, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Business, error)
	ListPublic(ctx context.Context, category string, limit, offset int) ([]models.Business, error)
	TransitionPaymentStatusTx(tx *gorm.DB, id uuid.UUID, from, to enums.BusinessPaymentStatus) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a businesses repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, business *models.Business) (*models.Business, error) {
	if err := r.db.WithContext(ctx).Create(business).Error; err != nil {
		return nil, err
	}
	return business, nil
}

func (r *repository) Update(ctx context.Context, business *models.Business) error {
	return r.db.WithContext(ctx).Save(business).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	var business models.Business
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *repository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Business, error) {
	var business models.Business
	err := tx.Where("id = ?", id).First(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Business, error) {
	var rows []models.Business
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListPublic returns approved, paid, published businesses for the directory.
func (r *repository) ListPublic(ctx context.Context, category string, limit, offset int) ([]models.Business, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.BusinessStatusPublished).
		Where("is_approved = TRUE").
		Where("payment_status = ?", enums.BusinessPaymentPaid)
	if category != "" {
		query = query.Where("? = ANY(categories)", category)
	}
	var rows []models.Business
	err := query.
		Order("rating_average DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

// TransitionPaymentStatusTx conditionally moves the publication payment
// state. False with nil error means another writer changed it first.
func (r *repository) TransitionPaymentStatusTx(tx *gorm.DB, id uuid.UUID, from, to enums.BusinessPaymentStatus) (bool, error) {
	res := tx.Model(&models.Business{}).
		Where("id = ? AND payment_status = ?", id, from).
		Update("payment_status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
