package businesses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/outbox"
	"github.com/ahtisham774/spectech-backend/pkg/types"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type notifier interface {
	NotifyTx(ctx context.Context, tx *gorm.DB, notification models.Notification) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput carries owner-supplied profile fields.
type CreateInput struct {
	Name        string
	Description *string
	Phone       *string
	Email       *string
	Website     *string
	Categories  []string
	Address     types.Address
}

// UpdateInput carries a partial profile update. Nil fields are left alone.
type UpdateInput struct {
	Name        *string
	Description *string
	Phone       *string
	Email       *string
	Website     *string
	Categories  []string
	Address     *types.Address
}

// ServiceParams groups dependencies for the businesses service.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Notifier notifier
	Outbox   outboxEmitter
	Logger   *logger.Logger
}

// Service owns the business profile lifecycle: owner CRUD, visibility,
// and admin moderation. Moderation is gated on the listing fee being paid;
// the payment state itself is written only by the reconciliation engine.
type Service struct {
	repo     Repository
	tx       txRunner
	notifier notifier
	outbox   outboxEmitter
	logg     *logger.Logger
}

// NewService builds a businesses service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Tx == nil {
		return nil, errors.New("tx runner is required")
	}
	if params.Notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		repo:     params.Repo,
		tx:       params.Tx,
		notifier: params.Notifier,
		outbox:   params.Outbox,
		logg:     params.Logger,
	}, nil
}

// Create registers a new business profile for the owner. New profiles start
// as unpaid drafts.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*models.Business, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	}
	business := &models.Business{
		OwnerID:       ownerID,
		Name:          input.Name,
		Description:   input.Description,
		Phone:         input.Phone,
		Email:         input.Email,
		Website:       input.Website,
		Categories:    input.Categories,
		Address:       input.Address,
		Status:        enums.BusinessStatusDraft,
		PaymentStatus: enums.BusinessPaymentPending,
	}
	created, err := s.repo.Create(ctx, business)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create business")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"business_id": created.ID.String(),
		"owner_id":    ownerID.String(),
	}), "business created")
	return created, nil
}

// Get returns a business by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	business, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	return business, nil
}

// Update applies owner edits. Edits never touch moderation or payment state.
func (s *Service) Update(ctx context.Context, ownerID, businessID uuid.UUID, input UpdateInput) (*models.Business, error) {
	business, err := s.ownedBy(ctx, ownerID, businessID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name cannot be empty")
		}
		business.Name = *input.Name
	}
	if input.Description != nil {
		business.Description = input.Description
	}
	if input.Phone != nil {
		business.Phone = input.Phone
	}
	if input.Email != nil {
		business.Email = input.Email
	}
	if input.Website != nil {
		business.Website = input.Website
	}
	if input.Categories != nil {
		business.Categories = input.Categories
	}
	if input.Address != nil {
		business.Address = *input.Address
	}

	if err := s.repo.Update(ctx, business); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update business")
	}
	return business, nil
}

// ListMine returns the owner's businesses, regardless of state.
func (s *Service) ListMine(ctx context.Context, ownerID uuid.UUID) ([]models.Business, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list businesses")
	}
	return rows, nil
}

// ListPublic returns the public directory page.
func (s *Service) ListPublic(ctx context.Context, category string, limit, offset int) ([]models.Business, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.repo.ListPublic(ctx, category, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list public businesses")
	}
	return rows, nil
}

// SetStatus moves owner-controlled visibility. Publishing requires a paid
// and approved listing; draft and archived are always reachable.
func (s *Service) SetStatus(ctx context.Context, ownerID, businessID uuid.UUID, status enums.BusinessStatus) (*models.Business, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid business status %q", status))
	}
	business, err := s.ownedBy(ctx, ownerID, businessID)
	if err != nil {
		return nil, err
	}
	if status == enums.BusinessStatusPublished {
		if business.PaymentStatus != enums.BusinessPaymentPaid {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing fee must be paid before publishing")
		}
		if !business.IsApproved {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "business must be approved before publishing")
		}
	}
	business.Status = status
	if err := s.repo.Update(ctx, business); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update business status")
	}
	return business, nil
}

// Approve marks a paid business as approved. Unpaid businesses cannot be
// approved regardless of who asks.
func (s *Service) Approve(ctx context.Context, adminID, businessID uuid.UUID) (*models.Business, error) {
	business, err := s.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if business.PaymentStatus != enums.BusinessPaymentPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "business cannot be approved before the listing fee is paid")
	}
	if business.IsApproved {
		return business, nil
	}

	now := time.Now().UTC()
	business.IsApproved = true
	business.ApprovedAt = &now
	business.RejectedAt = nil
	business.RejectionReason = nil

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, business); err != nil {
			return err
		}
		notification := models.Notification{
			UserID: business.OwnerID,
			Type:   enums.NotificationBusinessApproved,
			Title:  "Your business was approved",
			Body:   fmt.Sprintf("%s is now approved and can be published.", business.Name),
			Data:   types.Metadata{"business_id": business.ID.String()},
		}
		if err := s.notifier.NotifyTx(ctx, tx, notification); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBusinessApproved,
			AggregateType: enums.AggregateBusiness,
			AggregateID:   business.ID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.RoleAdmin)},
			Data: map[string]interface{}{
				"business_id": business.ID.String(),
				"owner_id":    business.OwnerID.String(),
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve business")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"business_id": business.ID.String(),
		"admin_id":    adminID.String(),
	}), "business approved")
	return business, nil
}

// Reject records an admin rejection with a reason and revokes approval.
func (s *Service) Reject(ctx context.Context, adminID, businessID uuid.UUID, reason string) (*models.Business, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	business, err := s.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	business.IsApproved = false
	business.ApprovedAt = nil
	business.RejectedAt = &now
	business.RejectionReason = &reason
	if business.Status == enums.BusinessStatusPublished {
		business.Status = enums.BusinessStatusDraft
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, business); err != nil {
			return err
		}
		notification := models.Notification{
			UserID: business.OwnerID,
			Type:   enums.NotificationBusinessRejected,
			Title:  "Your business was rejected",
			Body:   fmt.Sprintf("%s was rejected: %s", business.Name, reason),
			Data:   types.Metadata{"business_id": business.ID.String()},
		}
		if err := s.notifier.NotifyTx(ctx, tx, notification); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBusinessRejected,
			AggregateType: enums.AggregateBusiness,
			AggregateID:   business.ID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.RoleAdmin)},
			Data: map[string]interface{}{
				"business_id": business.ID.String(),
				"owner_id":    business.OwnerID.String(),
				"reason":      reason,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject business")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"business_id": business.ID.String(),
		"admin_id":    adminID.String(),
	}), "business rejected")
	return business, nil
}

func (s *Service) ownedBy(ctx context.Context, ownerID, businessID uuid.UUID) (*models.Business, error) {
	business, err := s.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if business.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "business does not belong to the authenticated user")
	}
	return business, nil
}
