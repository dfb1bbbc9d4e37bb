package follows

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/ahtisham774/spectech-backend/pkg/db"
	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/types"
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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ToggleResult reports whether the caller now follows the business.
type ToggleResult struct {
	Following bool
}

// ServiceParams groups dependencies for the follows service.
type ServiceParams struct {
	Repo       Repository
	Businesses businessReader
	Users      userReader
	Notifier   notifier
	Tx         txRunner
	Logger     *logger.Logger
}

// Service maintains follow relationships and the denormalized follower count
// on the business row.
type Service struct {
	repo       Repository
	businesses businessReader
	users      userReader
	notifier   notifier
	tx         txRunner
	logg       *logger.Logger
}

// NewService builds a follows service.
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
		tx:         params.Tx,
		logg:       params.Logger,
	}, nil
}

// Toggle follows the business if the caller does not follow it yet and
// unfollows otherwise. The follow row and the counter move together.
func (s *Service) Toggle(ctx context.Context, userID, businessID uuid.UUID) (*ToggleResult, error) {
	business, err := s.businesses.FindByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	if business.OwnerID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owners cannot follow their own business")
	}

	following, err := s.repo.Exists(ctx, userID, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check follow")
	}

	if following {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			removed, err := repo.Delete(ctx, userID, businessID)
			if err != nil {
				return err
			}
			if !removed {
				return nil
			}
			return repo.AdjustFollowerCount(ctx, businessID, -1)
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unfollow business")
		}
		return &ToggleResult{Following: false}, nil
	}

	follower, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load follower")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, &models.Follow{UserID: userID, BusinessID: businessID}); err != nil {
			// A concurrent toggle already created the row.
			if dbpkg.IsUniqueViolation(err, "idx_follows_user_business") {
				return nil
			}
			return err
		}
		if err := repo.AdjustFollowerCount(ctx, businessID, 1); err != nil {
			return err
		}
		notification := models.Notification{
			UserID: business.OwnerID,
			Type:   enums.NotificationNewFollower,
			Title:  "New follower",
			Body:   fmt.Sprintf("%s started following %s.", follower.DisplayName(), business.Name),
			Data:   types.Metadata{"business_id": business.ID.String()},
		}
		return s.notifier.NotifyTx(ctx, tx, notification)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "follow business")
	}
	return &ToggleResult{Following: true}, nil
}

// ListFollowed returns the businesses the caller follows.
func (s *Service) ListFollowed(ctx context.Context, userID uuid.UUID) ([]models.Business, error) {
	rows, err := s.repo.ListBusinessesByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list followed businesses")
	}
	return rows, nil
}
