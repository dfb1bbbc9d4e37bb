package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
)

type businessReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
}

// CreateInput carries owner-supplied product fields.
type CreateInput struct {
	Name        string
	Description *string
	PriceCents  int64
	Currency    string
	Category    *string
}

// UpdateInput carries a partial product update. Nil fields are left alone.
type UpdateInput struct {
	Name        *string
	Description *string
	PriceCents  *int64
	Category    *string
	IsActive    *bool
}

// ServiceParams groups dependencies for the products service.
type ServiceParams struct {
	Repo       Repository
	Businesses businessReader
	Logger     *logger.Logger
}

// Service owns catalog entries under a business profile. Only the business
// owner mutates them; the public listing shows active products only.
type Service struct {
	repo       Repository
	businesses businessReader
	logg       *logger.Logger
}

// NewService builds a products service.
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

// Create adds a product to a business the caller owns.
func (s *Service) Create(ctx context.Context, ownerID, businessID uuid.UUID, input CreateInput) (*models.Product, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}
	if _, err := s.ownedBusiness(ctx, ownerID, businessID); err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = "usd"
	}
	product := &models.Product{
		BusinessID:  businessID,
		Name:        input.Name,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Currency:    currency,
		Category:    input.Category,
		IsActive:    true,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

// Update applies owner edits to a product.
func (s *Service) Update(ctx context.Context, ownerID, productID uuid.UUID, input UpdateInput) (*models.Product, error) {
	product, err := s.ownedProduct(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

// Delete removes a product from a business the caller owns.
func (s *Service) Delete(ctx context.Context, ownerID, productID uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, ownerID, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// ListPublic returns the active catalog of a business.
func (s *Service) ListPublic(ctx context.Context, businessID uuid.UUID) ([]models.Product, error) {
	rows, err := s.repo.ListByBusiness(ctx, businessID, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

// ListForOwner returns the full catalog of a business the caller owns.
func (s *Service) ListForOwner(ctx context.Context, ownerID, businessID uuid.UUID) ([]models.Product, error) {
	if _, err := s.ownedBusiness(ctx, ownerID, businessID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByBusiness(ctx, businessID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

func (s *Service) ownedBusiness(ctx context.Context, ownerID, businessID uuid.UUID) (*models.Business, error) {
	business, err := s.businesses.FindByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	if business.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "business does not belong to the authenticated user")
	}
	return business, nil
}

func (s *Service) ownedProduct(ctx context.Context, ownerID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if _, err := s.ownedBusiness(ctx, ownerID, product.BusinessID); err != nil {
		return nil, err
	}
	return product, nil
}
