package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
	"github.com/ahtisham774/spectech-backend/pkg/types"
)

// ErrStatusCASFailed is returned when a compare-and-set status transition
// matched no rows, meaning another writer already moved the record on.
var ErrStatusCASFailed = errors.New("payment status transition lost")

// Repository is the persistence surface of the payment engine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByIntentID(ctx context.Context, intentID string) (*models.Payment, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error)
	ListStaleNonTerminal(ctx context.Context, updatedBefore time.Time, limit int) ([]models.Payment, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.PaymentStatus, failureReason *string) error
	UpdateDetails(ctx context.Context, id uuid.UUID, description *string, metadata types.Metadata) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("stripe_payment_intent_id = ?", intentID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListStaleNonTerminal returns open payments whose last update predates the
// cutoff, oldest first. Used by the reconciliation sweep to catch intents
// whose webhooks never arrived.
func (r *repository) ListStaleNonTerminal(ctx context.Context, updatedBefore time.Time, limit int) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []enums.PaymentStatus{
			enums.PaymentStatusSucceeded,
			enums.PaymentStatusFailed,
			enums.PaymentStatusCanceled,
		}).
		Where("updated_at < ?", updatedBefore).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// TransitionStatus moves the payment from one status to another with a
// conditional update. Zero matched rows means a concurrent writer won the
// race and the caller must treat its own transition as already applied.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.PaymentStatus, failureReason *string) error {
	updates := map[string]any{"status": to}
	if failureReason != nil {
		updates["failure_reason"] = *failureReason
	}
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusCASFailed
	}
	return nil
}

// UpdateDetails overwrites the safe detail fields without touching status.
// Nil arguments leave the corresponding column alone.
func (r *repository) UpdateDetails(ctx context.Context, id uuid.UUID, description *string, metadata types.Metadata) error {
	updates := map[string]any{}
	if description != nil {
		updates["description"] = *description
	}
	if metadata != nil {
		updates["metadata"] = metadata
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}
