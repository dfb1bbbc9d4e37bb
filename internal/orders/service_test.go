package orders

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/config"
	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/types"
)

func newTestOrdersService(t *testing.T, repo Repository, listing config.ListingConfig) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Listing: listing,
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc
}

func TestService_CreateForPaymentTxSnapshotsTotals(t *testing.T) {
	repo := &stubOrderRepo{}
	svc := newTestOrdersService(t, repo, config.ListingConfig{TaxRateBasis: 825})

	payment := &models.Payment{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		BusinessID:  uuid.New(),
		AmountCents: 9900,
		Currency:    "usd",
	}
	business := &models.Business{ID: payment.BusinessID, Name: "Corner Cafe"}
	payer := &models.User{ID: payment.UserID, Email: "owner@example.com", FirstName: "Ada", LastName: "Okafor"}

	order, err := svc.CreateForPaymentTx(context.Background(), nil, payment, business, payer, nil)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.SubtotalCents != 9900 {
		t.Fatalf("unexpected subtotal %d", order.SubtotalCents)
	}
	// 9900 * 8.25% = 816.75, rounds to 817.
	if order.TaxCents != 817 {
		t.Fatalf("unexpected tax %d", order.TaxCents)
	}
	if order.TotalCents != 10717 {
		t.Fatalf("unexpected total %d", order.TotalCents)
	}
	if order.Status != enums.OrderStatusCompleted {
		t.Fatalf("unexpected status %s", order.Status)
	}
	if order.BillingName != "Ada Okafor" {
		t.Fatalf("unexpected billing name %q", order.BillingName)
	}
	if order.PaymentID != payment.ID {
		t.Fatal("order must reference the payment")
	}
	if len(order.Items) != 1 || order.Items[0].UnitAmountCents != 9900 {
		t.Fatalf("unexpected items %+v", order.Items)
	}
}

func TestService_CreateForPaymentTxZeroTaxRate(t *testing.T) {
	repo := &stubOrderRepo{}
	svc := newTestOrdersService(t, repo, config.ListingConfig{})

	payment := &models.Payment{ID: uuid.New(), AmountCents: 9900, Currency: "usd"}
	order, err := svc.CreateForPaymentTx(context.Background(), nil, payment, &models.Business{}, &models.User{Email: "x@example.com"}, nil)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.TaxCents != 0 {
		t.Fatalf("expected zero tax, got %d", order.TaxCents)
	}
	if order.TotalCents != 9900 {
		t.Fatalf("expected total equals subtotal, got %d", order.TotalCents)
	}
}

func TestService_CreateForPaymentTxPrefersObservedBilling(t *testing.T) {
	repo := &stubOrderRepo{}
	svc := newTestOrdersService(t, repo, config.ListingConfig{})

	payment := &models.Payment{ID: uuid.New(), AmountCents: 9900, Currency: "usd"}
	payer := &models.User{Email: "owner@example.com", FirstName: "Ada", LastName: "Okafor"}
	billing := &types.BillingDetails{Name: "A. Okafor Ltd", Email: "billing@example.com"}

	order, err := svc.CreateForPaymentTx(context.Background(), nil, payment, &models.Business{}, payer, billing)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.BillingName != "A. Okafor Ltd" || order.BillingEmail != "billing@example.com" {
		t.Fatalf("expected observed billing snapshot, got %q / %q", order.BillingName, order.BillingEmail)
	}
}

func TestService_CreateForPaymentTxReturnsExistingOrder(t *testing.T) {
	repo := &stubOrderRepo{}
	svc := newTestOrdersService(t, repo, config.ListingConfig{})

	payment := &models.Payment{ID: uuid.New(), AmountCents: 9900, Currency: "usd"}
	payer := &models.User{Email: "owner@example.com"}

	first, err := svc.CreateForPaymentTx(context.Background(), nil, payment, &models.Business{}, payer, nil)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	second, err := svc.CreateForPaymentTx(context.Background(), nil, payment, &models.Business{}, payer, nil)
	if err != nil {
		t.Fatalf("re-entrant create: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the existing order back, got %s and %s", first.ID, second.ID)
	}
	if len(repo.orders) != 1 {
		t.Fatalf("expected exactly one stored order, got %d", len(repo.orders))
	}
}

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	number := newOrderNumber(now)
	if !strings.HasPrefix(number, "ST-20260314-") {
		t.Fatalf("unexpected order number %q", number)
	}
	parts := strings.Split(number, "-")
	if len(parts) != 3 || len(parts[2]) != 6 {
		t.Fatalf("unexpected order number shape %q", number)
	}
}

type stubOrderRepo struct {
	orders []*models.Order
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	s.orders = append(s.orders, order)
	return order, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Order, error) {
	for _, o := range s.orders {
		if o.PaymentID == paymentID {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}
