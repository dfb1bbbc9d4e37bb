package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/config"
	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/types"
)

const (
	orderNumberPrefix = "ST"
	listingItemName   = "Business listing fee"
)

// ServiceParams groups dependencies for the orders service.
type ServiceParams struct {
	Repo    Repository
	Logger  *logger.Logger
	Listing config.ListingConfig
}

// Service creates and reads the order ledger. Orders are write-once: one per
// successful payment, totals frozen at creation.
type Service struct {
	repo    Repository
	logg    *logger.Logger
	listing config.ListingConfig
}

// NewService builds an orders service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{repo: params.Repo, logg: params.Logger, listing: params.Listing}, nil
}

// CreateForPaymentTx records the order for a payment that just succeeded.
// Runs inside the reconciliation transaction. Re-entrant: an order already
// keyed to the payment is returned as-is, and the unique payment_id index is
// the second line of defense against a double write.
func (s *Service) CreateForPaymentTx(ctx context.Context, tx *gorm.DB, payment *models.Payment, business *models.Business, payer *models.User, billing *types.BillingDetails) (*models.Order, error) {
	if payment == nil || business == nil || payer == nil {
		return nil, errors.New("payment, business, and payer are required")
	}

	repo := s.repo.WithTx(tx)
	existing, err := repo.FindByPaymentID(ctx, payment.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	billingName := payer.DisplayName()
	billingEmail := payer.Email
	if billing != nil {
		if billing.Name != "" {
			billingName = billing.Name
		}
		if billing.Email != "" {
			billingEmail = billing.Email
		}
	}

	items := types.OrderItems{
		{
			Name:            listingItemName,
			Description:     fmt.Sprintf("Directory listing for %s", business.Name),
			UnitAmountCents: payment.AmountCents,
			Quantity:        1,
		},
	}
	subtotal := items.SubtotalCents()
	tax := taxFor(subtotal, s.listing.TaxRateBasis)
	now := time.Now().UTC()

	order := &models.Order{
		OrderNumber:   newOrderNumber(now),
		UserID:        payment.UserID,
		BusinessID:    payment.BusinessID,
		PaymentID:     payment.ID,
		Items:         items,
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
		Currency:      payment.Currency,
		Status:        enums.OrderStatusCompleted,
		BillingName:   billingName,
		BillingEmail:  billingEmail,
		CompletedAt:   &now,
	}

	created, err := repo.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetForUser returns an order if it belongs to the caller.
func (s *Service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to the authenticated user")
	}
	return order, nil
}

// ListForUser returns the caller's order history.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// taxFor computes tax in cents from a basis-point rate, rounding half up.
func taxFor(subtotalCents, rateBps int64) int64 {
	if rateBps <= 0 || subtotalCents <= 0 {
		return 0
	}
	subtotal := decimal.NewFromInt(subtotalCents)
	rate := decimal.NewFromInt(rateBps).Div(decimal.NewFromInt(10000))
	return subtotal.Mul(rate).Round(0).IntPart()
}

// newOrderNumber yields ST-YYYYMMDD-XXXXXX with a random hex suffix.
func newOrderNumber(now time.Time) string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, now.Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix)))
}
