package bookmarks

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/ahtisham774/spectech-backend/pkg/db"
	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
)

type businessReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
}

// ToggleResult reports whether the business is now bookmarked.
type ToggleResult struct {
	Bookmarked bool
}

// ServiceParams groups dependencies for the bookmarks service.
type ServiceParams struct {
	Repo       Repository
	Businesses businessReader
	Logger     *logger.Logger
}

// Service maintains a user's saved businesses.
type Service struct {
	repo       Repository
	businesses businessReader
	logg       *logger.Logger
}

// NewService builds a bookmarks service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Businesses == nil {
		return nil, errors.New("business reader is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{repo: params.Repo, businesses: params.Businesses, logg: params.Logger}, nil
}

// Toggle bookmarks the business if it is not saved yet and removes the
// bookmark otherwise.
func (s *Service) Toggle(ctx context.Context, userID, businessID uuid.UUID) (*ToggleResult, error) {
	if _, err := s.businesses.FindByID(ctx, businessID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}

	saved, err := s.repo.Exists(ctx, userID, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check bookmark")
	}
	if saved {
		if _, err := s.repo.Delete(ctx, userID, businessID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove bookmark")
		}
		return &ToggleResult{Bookmarked: false}, nil
	}

	if err := s.repo.Create(ctx, &models.Bookmark{UserID: userID, BusinessID: businessID}); err != nil {
		// A concurrent toggle already created the row.
		if !dbpkg.IsUniqueViolation(err, "idx_bookmarks_user_business") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bookmark")
		}
	}
	return &ToggleResult{Bookmarked: true}, nil
}

// ListSaved returns the businesses the caller bookmarked.
func (s *Service) ListSaved(ctx context.Context, userID uuid.UUID) ([]models.Business, error) {
	rows, err := s.repo.ListBusinessesByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookmarked businesses")
	}
	return rows, nil
}
