package reviews

import (
	"context"
	"errors"
	"fmt"

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
	minRating = 1
	maxRating = 5

	defaultListLimit = 20
	maxListLimit     = 100
)

type businessReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type notifier interface {
	NotifyTx(ctx context.Context, tx *gorm.DB, notification models.Notification) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input carries the review fields a caller submits.
type Input struct {
	Rating int
	Title  *string
	Body   *string
}

// ServiceParams groups dependencies for the reviews service.
type ServiceParams struct {
	Repo       Repository
	Businesses businessReader
	Users      userReader
	Notifier   notifier
	Outbox     outboxEmitter
	Tx         txRunner
	Logger     *logger.Logger
}

// Service owns reviews and the denormalized rating aggregate on the
// business row. One review per user per business; resubmitting updates it.
type Service struct {
	repo       Repository
	businesses businessReader
	users      userReader
	notifier   notifier
	outbox     outboxEmitter
	tx         txRunner
	logg       *logger.Logger
}

// NewService builds a reviews service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Businesses == nil {
		return nil, errors.New("business reader is required")
	}
	if params.Users == nil {
		return nil, errors.New("user reader is required")
	}
	if params.Notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox is required")
	}
	if params.Tx == nil {
		return nil, errors.New("tx runner is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		repo:       params.Repo,
		businesses: params.Businesses,
		users:      params.Users,
		notifier:   params.Notifier,
		outbox:     params.Outbox,
		tx:         params.Tx,
		logg:       params.Logger,
	}, nil
}

// Submit creates the caller's review of a business, or updates it in place
// when one exists. The rating aggregate moves in the same transaction.
func (s *Service) Submit(ctx context.Context, userID, businessID uuid.UUID, input Input) (*models.Review, error) {
	if input.Rating < minRating || input.Rating > maxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("rating must be between %d and %d", minRating, maxRating))
	}

	business, err := s.businesses.FindByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	if business.OwnerID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owners cannot review their own business")
	}

	existing, err := s.repo.FindByUserAndBusiness(ctx, userID, businessID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}

	if existing != nil {
		existing.Rating = input.Rating
		existing.Title = input.Title
		existing.Body = input.Body
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.Update(ctx, existing); err != nil {
				return err
			}
			return repo.RefreshBusinessRating(ctx, businessID)
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
		}
		return existing, nil
	}

	reviewer, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reviewer")
	}

	review := &models.Review{
		UserID:     userID,
		BusinessID: businessID,
		Rating:     input.Rating,
		Title:      input.Title,
		Body:       input.Body,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, review); err != nil {
			return err
		}
		if err := repo.RefreshBusinessRating(ctx, businessID); err != nil {
			return err
		}
		notification := models.Notification{
			UserID: business.OwnerID,
			Type:   enums.NotificationNewReview,
			Title:  "New review",
			Body:   fmt.Sprintf("%s left a %d-star review on %s.", reviewer.DisplayName(), input.Rating, business.Name),
			Data:   types.Metadata{"business_id": business.ID.String(), "review_id": review.ID.String()},
		}
		if err := s.notifier.NotifyTx(ctx, tx, notification); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewCreated,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: map[string]interface{}{
				"review_id":   review.ID.String(),
				"business_id": business.ID.String(),
				"rating":      input.Rating,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	return review, nil
}

// ListByBusiness returns a page of reviews for a business.
func (s *Service) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]models.Review, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.repo.ListByBusiness(ctx, businessID, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return rows, nil
}
