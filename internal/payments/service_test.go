package payments

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/config"
	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/outbox"
	"github.com/ahtisham774/spectech-backend/pkg/redis"
	"github.com/ahtisham774/spectech-backend/pkg/types"
)

func newTestService(t *testing.T, repo *stubRepo, biz *stubBusinessRepo, users *stubUserRepo, orders *stubOrderCreator, gateway *stubGateway, notes *stubNotifier, events *stubOutbox) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:         repo,
		BusinessRepo: biz,
		UserRepo:     users,
		Orders:       orders,
		Notifier:     notes,
		Outbox:       events,
		Gateway:      gateway,
		Locker:       &stubLocker{},
		TxRunner:     &stubTxRunner{},
		Logger:       logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Listing:      config.ListingConfig{FeeAmountCents: 9900, FeeCurrency: "usd"},
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc
}

func TestService_CreateIntentPersistsPendingPayment(t *testing.T) {
	ownerID := uuid.New()
	business := &models.Business{ID: uuid.New(), OwnerID: ownerID, Name: "Blue Bottle Plumbing", PaymentStatus: enums.BusinessPaymentPending}
	custID := "cus_123"
	payer := &models.User{ID: ownerID, Email: "owner@example.com", StripeCustomerID: &custID}
	repo := &stubRepo{}
	gateway := &stubGateway{
		intent: &stripe.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret", Status: stripe.PaymentIntentStatusRequiresPaymentMethod},
	}
	svc := newTestService(t, repo, &stubBusinessRepo{business: business}, &stubUserRepo{user: payer}, &stubOrderCreator{}, gateway, &stubNotifier{}, &stubOutbox{})

	result, err := svc.CreateIntent(context.Background(), ownerID, business.ID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if result.ClientSecret != "pi_123_secret" {
		t.Fatalf("unexpected client secret %q", result.ClientSecret)
	}
	if repo.payment == nil {
		t.Fatal("expected payment persisted")
	}
	if repo.payment.Status != enums.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", repo.payment.Status)
	}
	if repo.payment.StripePaymentIntentID != "pi_123" {
		t.Fatalf("unexpected intent id %q", repo.payment.StripePaymentIntentID)
	}
	if repo.payment.AmountCents != 9900 {
		t.Fatalf("unexpected amount %d", repo.payment.AmountCents)
	}
	if gateway.customerCalls != 0 {
		t.Fatalf("expected stored customer id reused, got %d ensure calls", gateway.customerCalls)
	}
}

func TestService_CreateIntentCreatesCustomerOnce(t *testing.T) {
	ownerID := uuid.New()
	business := &models.Business{ID: uuid.New(), OwnerID: ownerID, Name: "Hill Bakery", PaymentStatus: enums.BusinessPaymentPending}
	payer := &models.User{ID: ownerID, Email: "owner@example.com"}
	users := &stubUserRepo{user: payer}
	gateway := &stubGateway{
		intent:     &stripe.PaymentIntent{ID: "pi_1", ClientSecret: "sec"},
		customerID: "cus_new",
	}
	svc := newTestService(t, &stubRepo{}, &stubBusinessRepo{business: business}, users, &stubOrderCreator{}, gateway, &stubNotifier{}, &stubOutbox{})

	if _, err := svc.CreateIntent(context.Background(), ownerID, business.ID); err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if gateway.customerCalls != 1 {
		t.Fatalf("expected one customer ensure call, got %d", gateway.customerCalls)
	}
	if users.storedCustomerID != "cus_new" {
		t.Fatalf("expected customer id persisted, got %q", users.storedCustomerID)
	}
}

func TestService_CreateIntentShortCircuitsAlreadyPaidBusiness(t *testing.T) {
	ownerID := uuid.New()
	business := &models.Business{ID: uuid.New(), OwnerID: ownerID, PaymentStatus: enums.BusinessPaymentPaid}
	gateway := &stubGateway{}
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubBusinessRepo{business: business}, &stubUserRepo{}, &stubOrderCreator{}, gateway, &stubNotifier{}, &stubOutbox{})

	result, err := svc.CreateIntent(context.Background(), ownerID, business.ID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if !result.AlreadyPaid {
		t.Fatal("expected already-paid short-circuit")
	}
	if result.Payment != nil || result.ClientSecret != "" {
		t.Fatal("short-circuit must not carry an intent")
	}
	if gateway.intentCalls != 0 {
		t.Fatalf("short-circuit must not hit the gateway, got %d calls", gateway.intentCalls)
	}
	if repo.payment != nil {
		t.Fatal("short-circuit must not persist a payment row")
	}
}

func TestService_CreateIntentRejectsForeignBusiness(t *testing.T) {
	business := &models.Business{ID: uuid.New(), OwnerID: uuid.New(), PaymentStatus: enums.BusinessPaymentPending}
	svc := newTestService(t, &stubRepo{}, &stubBusinessRepo{business: business}, &stubUserRepo{}, &stubOrderCreator{}, &stubGateway{}, &stubNotifier{}, &stubOutbox{})

	_, err := svc.CreateIntent(context.Background(), uuid.New(), business.ID)
	if err == nil {
		t.Fatal("expected forbidden rejection")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestService_ApplyObservationFirstSuccessRunsSideEffects(t *testing.T) {
	payment := pendingPayment()
	business := &models.Business{ID: payment.BusinessID, OwnerID: payment.UserID, Name: "Corner Cafe", PaymentStatus: enums.BusinessPaymentPending}
	repo := &stubRepo{payment: payment}
	biz := &stubBusinessRepo{business: business}
	orders := &stubOrderCreator{}
	notes := &stubNotifier{}
	events := &stubOutbox{}
	svc := newTestService(t, repo, biz, &stubUserRepo{user: &models.User{ID: payment.UserID, Email: "o@example.com"}}, orders, &stubGateway{}, notes, events)

	obs := Observation{IntentID: payment.StripePaymentIntentID, Status: enums.PaymentStatusSucceeded}
	if err := svc.ApplyObservation(context.Background(), obs); err != nil {
		t.Fatalf("apply observation: %v", err)
	}

	if repo.payment.Status != enums.PaymentStatusSucceeded {
		t.Fatalf("expected succeeded payment, got %s", repo.payment.Status)
	}
	if orders.created != 1 {
		t.Fatalf("expected one order, got %d", orders.created)
	}
	if biz.paymentStatus != enums.BusinessPaymentPaid {
		t.Fatalf("expected business paid, got %s", biz.paymentStatus)
	}
	if len(notes.sent) != 1 || notes.sent[0].Type != enums.NotificationListingPaid {
		t.Fatalf("expected listing_paid notification, got %+v", notes.sent)
	}
	if len(events.emitted) != 1 || events.emitted[0].EventType != enums.EventPaymentSucceeded {
		t.Fatalf("expected payment_succeeded event, got %+v", events.emitted)
	}
	if got := repo.payment.Metadata[metadataKeyOrder]; got != orders.lastOrderID.String() {
		t.Fatalf("expected order id linked into payment metadata, got %q", got)
	}
}

func TestService_ApplyObservationSuccessSnapshotsObservedBilling(t *testing.T) {
	payment := pendingPayment()
	business := &models.Business{ID: payment.BusinessID, OwnerID: payment.UserID, Name: "Corner Cafe", PaymentStatus: enums.BusinessPaymentPending}
	orders := &stubOrderCreator{}
	svc := newTestService(t, &stubRepo{payment: payment}, &stubBusinessRepo{business: business}, &stubUserRepo{user: &models.User{ID: payment.UserID, Email: "o@example.com"}}, orders, &stubGateway{}, &stubNotifier{}, &stubOutbox{})

	obs := Observation{
		IntentID: payment.StripePaymentIntentID,
		Status:   enums.PaymentStatusSucceeded,
		Billing:  &types.BillingDetails{Name: "Ada Okafor", Email: "billing@example.com"},
	}
	if err := svc.ApplyObservation(context.Background(), obs); err != nil {
		t.Fatalf("apply observation: %v", err)
	}
	if orders.lastBilling == nil || orders.lastBilling.Name != "Ada Okafor" || orders.lastBilling.Email != "billing@example.com" {
		t.Fatalf("expected observed billing details forwarded to order creation, got %+v", orders.lastBilling)
	}
}

func TestService_ApplyObservationCanceledResetsFailedBusiness(t *testing.T) {
	payment := pendingPayment()
	business := &models.Business{ID: payment.BusinessID, Name: "Corner Cafe", PaymentStatus: enums.BusinessPaymentFailed}
	repo := &stubRepo{payment: payment}
	biz := &stubBusinessRepo{business: business}
	svc := newTestService(t, repo, biz, &stubUserRepo{}, &stubOrderCreator{}, &stubGateway{}, &stubNotifier{}, &stubOutbox{})

	obs := Observation{IntentID: payment.StripePaymentIntentID, Status: enums.PaymentStatusCanceled}
	if err := svc.ApplyObservation(context.Background(), obs); err != nil {
		t.Fatalf("apply observation: %v", err)
	}
	if repo.payment.Status != enums.PaymentStatusCanceled {
		t.Fatalf("expected canceled payment, got %s", repo.payment.Status)
	}
	if business.PaymentStatus != enums.BusinessPaymentPending {
		t.Fatalf("cancellation must reset the business to pending, got %s", business.PaymentStatus)
	}
}

func TestService_ApplyObservationCanceledKeepsPaidBusiness(t *testing.T) {
	payment := pendingPayment()
	business := &models.Business{ID: payment.BusinessID, PaymentStatus: enums.BusinessPaymentPaid}
	repo := &stubRepo{payment: payment}
	svc := newTestService(t, repo, &stubBusinessRepo{business: business}, &stubUserRepo{}, &stubOrderCreator{}, &stubGateway{}, &stubNotifier{}, &stubOutbox{})

	obs := Observation{IntentID: payment.StripePaymentIntentID, Status: enums.PaymentStatusCanceled}
	if err := svc.ApplyObservation(context.Background(), obs); err != nil {
		t.Fatalf("apply observation: %v", err)
	}
	if business.PaymentStatus != enums.BusinessPaymentPaid {
		t.Fatalf("paid listing must stay paid, got %s", business.PaymentStatus)
	}
}

func TestService_ApplyObservationEqualStatusIsNoop(t *testing.T) {
	payment := pendingPayment()
	payment.Status = enums.PaymentStatusProcessing
	repo := &stubRepo{payment: payment}
	orders := &stubOrderCreator{}
	svc := newTestService(t, repo, &stubBusinessRepo{}, &stubUserRepo{}, orders, &stubGateway{}, &stubNotifier{}, &stubOutbox{})

	obs := Observation{IntentID: payment.StripePaymentIntentID, Status: enums.PaymentStatusProcessing}
	if err := svc.ApplyObservation(context.Background(), obs); err != nil {
		t.Fatalf("apply observation: %v", err)
	}
	if orders.created != 0 {
		t.Fatal("expected no order for equal-status observation")
	}
	if repo.transitions != 0 {
		t.Fatalf("expected no status writes, got %d", repo.transitions)
	}
	if repo.detailWrites != 0 {
		t.Fatalf("bare redelivery must not touch details, got %d writes", repo.detailWrites)
	}
}

func TestService_ApplyObservationEqualStatusRefreshesDetails(t *testing.T) {
	payment := pendingPayment()
	payment.Status = enums.PaymentStatusProcessing
	payment.Metadata = types.Metadata{"order_id": "keep-me"}
	repo := &stubRepo{payment: payment}
	svc := newTestService(t, repo, &stubBusinessRepo{}, &stubUserRepo{}, &stubOrderCreator{}, &stubGateway{}, &stubNotifier{}, &stubOutbox{})

	desc := "Listing fee for Corner Cafe"
	obs := Observation{
		IntentID:    payment.StripePaymentIntentID,
		Status:      enums.PaymentStatusProcessing,
		Description: &desc,
		Metadata:    map[string]string{"business_id": "biz-1"},
	}
	if err := svc.ApplyObservation(context.Background(), obs); err != nil {
		t.Fatalf("apply observation: %v", err)
	}
	if repo.transitions != 0 {
		t.Fatalf("equal status must not transition, got %d writes", repo.transitions)
	}
	if repo.payment.Description == nil || *repo.payment.Description != desc {
		t.Fatal("expected description refreshed on redelivery")
	}
	if repo.payment.Metadata["business_id"] != "biz-1" {
		t.Fatalf("expected observed metadata merged, got %+v", repo.payment.Metadata)
	}
	if repo.payment.Metadata["order_id"] != "keep-me" {
		t.Fatalf("platform-written metadata must survive the merge, got %+v", repo.payment.Metadata)
	}
}

func TestService_ApplyObservationIgnoresTerminalPayment(t *testing.T) {
	payment := pendingPayment()
	payment.Status = enums.PaymentStatusFailed
	repo := &stubRepo{payment: payment}
	svc := newTestService(t, repo, &stubBusinessRepo{}, &stubUserRepo{}, &stubOrderCreator{}, &stubGateway{}, &stubNotifier{}, &stubOutbox{})

	obs := Observation{IntentID: payment.StripePaymentIntentID, Status: enums.PaymentStatusSucceeded}
	if err := svc.ApplyObservation(context.Background(), obs); err != nil {
		t.Fatalf("apply observation: %v", err)
	}
	if repo.payment.Status != enums.PaymentStatusFailed {
		t.Fatalf("terminal status must not change, got %s", repo.payment.Status)
	}
}

func TestService_ApplyObservationSecondPaymentCannotSucceed(t *testing.T) {
	payment := pendingPayment()
	business := &models.Business{ID: payment.BusinessID, PaymentStatus: enums.BusinessPaymentPaid}
	repo := &stubRepo{payment: payment}
	orders := &stubOrderCreator{}
	svc := newTestService(t, repo, &stubBusinessRepo{business: business}, &stubUserRepo{}, orders, &stubGateway{}, &stubNotifier{}, &stubOutbox{})

	obs := Observation{IntentID: payment.StripePaymentIntentID, Status: enums.PaymentStatusSucceeded}
	if err := svc.ApplyObservation(context.Background(), obs); err != nil {
		t.Fatalf("apply observation: %v", err)
	}
	if orders.created != 0 {
		t.Fatal("expected no order when business already paid")
	}
	if repo.payment.Status != enums.PaymentStatusPending {
		t.Fatalf("expected payment untouched, got %s", repo.payment.Status)
	}
}

func TestService_ApplyObservationFailureRecordsReason(t *testing.T) {
	payment := pendingPayment()
	business := &models.Business{ID: payment.BusinessID, Name: "Corner Cafe", PaymentStatus: enums.BusinessPaymentPending}
	repo := &stubRepo{payment: payment}
	biz := &stubBusinessRepo{business: business}
	notes := &stubNotifier{}
	events := &stubOutbox{}
	svc := newTestService(t, repo, biz, &stubUserRepo{}, &stubOrderCreator{}, &stubGateway{}, notes, events)

	reason := "card_declined"
	obs := Observation{IntentID: payment.StripePaymentIntentID, Status: enums.PaymentStatusFailed, FailureReason: &reason}
	if err := svc.ApplyObservation(context.Background(), obs); err != nil {
		t.Fatalf("apply observation: %v", err)
	}
	if repo.payment.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", repo.payment.Status)
	}
	if repo.payment.FailureReason == nil || *repo.payment.FailureReason != reason {
		t.Fatal("expected failure reason recorded")
	}
	if biz.paymentStatus != enums.BusinessPaymentFailed {
		t.Fatalf("expected business payment failed, got %s", biz.paymentStatus)
	}
	if len(notes.sent) != 1 || notes.sent[0].Type != enums.NotificationListingFailed {
		t.Fatalf("expected failure notification, got %+v", notes.sent)
	}
	if len(events.emitted) != 1 || events.emitted[0].EventType != enums.EventPaymentFailed {
		t.Fatalf("expected payment_failed event, got %+v", events.emitted)
	}
}

func TestService_ApplyObservationLostRaceIsGraceful(t *testing.T) {
	payment := pendingPayment()
	business := &models.Business{ID: payment.BusinessID, PaymentStatus: enums.BusinessPaymentPending}
	repo := &stubRepo{payment: payment, forceCASMiss: true}
	svc := newTestService(t, repo, &stubBusinessRepo{business: business}, &stubUserRepo{user: &models.User{ID: payment.UserID}}, &stubOrderCreator{}, &stubGateway{}, &stubNotifier{}, &stubOutbox{})

	obs := Observation{IntentID: payment.StripePaymentIntentID, Status: enums.PaymentStatusProcessing}
	if err := svc.ApplyObservation(context.Background(), obs); err != nil {
		t.Fatalf("lost race must be a graceful no-op, got %v", err)
	}
}

func TestService_ApplyObservationUnknownIntentIsIgnored(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubBusinessRepo{}, &stubUserRepo{}, &stubOrderCreator{}, &stubGateway{}, &stubNotifier{}, &stubOutbox{})

	obs := Observation{IntentID: "pi_unknown", Status: enums.PaymentStatusSucceeded}
	if err := svc.ApplyObservation(context.Background(), obs); err != nil {
		t.Fatalf("unknown intent must not error: %v", err)
	}
}

func TestService_GetStatusReconcilesFromGateway(t *testing.T) {
	payment := pendingPayment()
	business := &models.Business{ID: payment.BusinessID, Name: "Corner Cafe", PaymentStatus: enums.BusinessPaymentPending}
	repo := &stubRepo{payment: payment}
	gateway := &stubGateway{
		intent: &stripe.PaymentIntent{ID: payment.StripePaymentIntentID, Status: stripe.PaymentIntentStatusSucceeded},
	}
	svc := newTestService(t, repo, &stubBusinessRepo{business: business}, &stubUserRepo{user: &models.User{ID: payment.UserID}}, &stubOrderCreator{}, gateway, &stubNotifier{}, &stubOutbox{})

	refreshed, err := svc.GetStatus(context.Background(), payment.UserID, payment.ID)
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if refreshed.Status != enums.PaymentStatusSucceeded {
		t.Fatalf("expected reconciled succeeded status, got %s", refreshed.Status)
	}
}

func TestService_ReconcileStaleRefreshesAbandonedIntents(t *testing.T) {
	payment := pendingPayment()
	payment.UpdatedAt = time.Now().UTC().Add(-2 * time.Hour)
	business := &models.Business{ID: payment.BusinessID, OwnerID: payment.UserID, Name: "Corner Cafe", PaymentStatus: enums.BusinessPaymentPending}
	repo := &stubRepo{payment: payment}
	gateway := &stubGateway{
		intent: &stripe.PaymentIntent{ID: payment.StripePaymentIntentID, Status: stripe.PaymentIntentStatusSucceeded},
	}
	svc := newTestService(t, repo, &stubBusinessRepo{business: business}, &stubUserRepo{user: &models.User{ID: payment.UserID}}, &stubOrderCreator{}, gateway, &stubNotifier{}, &stubOutbox{})

	reconciled, err := svc.ReconcileStale(context.Background(), time.Now().UTC().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("reconcile stale: %v", err)
	}
	if reconciled != 1 {
		t.Fatalf("expected 1 reconciled payment, got %d", reconciled)
	}
	if repo.payment.Status != enums.PaymentStatusSucceeded {
		t.Fatalf("expected succeeded after sweep, got %s", repo.payment.Status)
	}
}

func TestService_ReconcileStaleSkipsFreshPayments(t *testing.T) {
	payment := pendingPayment()
	payment.UpdatedAt = time.Now().UTC()
	repo := &stubRepo{payment: payment}
	gateway := &stubGateway{}
	svc := newTestService(t, repo, &stubBusinessRepo{}, &stubUserRepo{}, &stubOrderCreator{}, gateway, &stubNotifier{}, &stubOutbox{})

	reconciled, err := svc.ReconcileStale(context.Background(), time.Now().UTC().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("reconcile stale: %v", err)
	}
	if reconciled != 0 {
		t.Fatalf("expected no reconciled payments, got %d", reconciled)
	}
	if repo.payment.Status != enums.PaymentStatusPending {
		t.Fatalf("fresh payment must be untouched, got %s", repo.payment.Status)
	}
}

func TestService_GetStatusRejectsForeignPayment(t *testing.T) {
	payment := pendingPayment()
	repo := &stubRepo{payment: payment}
	svc := newTestService(t, repo, &stubBusinessRepo{}, &stubUserRepo{}, &stubOrderCreator{}, &stubGateway{}, &stubNotifier{}, &stubOutbox{})

	_, err := svc.GetStatus(context.Background(), uuid.New(), payment.ID)
	if err == nil {
		t.Fatal("expected forbidden rejection")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func pendingPayment() *models.Payment {
	return &models.Payment{
		ID:                    uuid.New(),
		UserID:                uuid.New(),
		BusinessID:            uuid.New(),
		StripePaymentIntentID: "pi_test",
		StripeCustomerID:      "cus_test",
		AmountCents:           9900,
		Currency:              "usd",
		Status:                enums.PaymentStatusPending,
	}
}

type stubRepo struct {
	payment      *models.Payment
	transitions  int
	detailWrites int
	forceCASMiss bool
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	payment.ID = uuid.New()
	s.payment = payment
	return payment, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if s.payment == nil || s.payment.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.payment
	return &copied, nil
}

func (s *stubRepo) FindByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	if s.payment == nil || s.payment.StripePaymentIntentID != intentID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.payment
	return &copied, nil
}

func (s *stubRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.Payment, error) {
	return nil, nil
}

func (s *stubRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	return nil, nil
}

func (s *stubRepo) ListStaleNonTerminal(ctx context.Context, updatedBefore time.Time, limit int) ([]models.Payment, error) {
	if s.payment == nil || s.payment.Status.IsTerminal() || !s.payment.UpdatedAt.Before(updatedBefore) {
		return nil, nil
	}
	return []models.Payment{*s.payment}, nil
}

func (s *stubRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.PaymentStatus, failureReason *string) error {
	s.transitions++
	if s.forceCASMiss || s.payment == nil || s.payment.ID != id || s.payment.Status != from {
		return ErrStatusCASFailed
	}
	s.payment.Status = to
	if failureReason != nil {
		s.payment.FailureReason = failureReason
	}
	return nil
}

func (s *stubRepo) UpdateDetails(ctx context.Context, id uuid.UUID, description *string, metadata types.Metadata) error {
	if s.payment == nil || s.payment.ID != id {
		return gorm.ErrRecordNotFound
	}
	s.detailWrites++
	if description != nil {
		s.payment.Description = description
	}
	if metadata != nil {
		s.payment.Metadata = metadata
	}
	return nil
}

type stubBusinessRepo struct {
	business      *models.Business
	paymentStatus enums.BusinessPaymentStatus
}

func (s *stubBusinessRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	if s.business == nil || s.business.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.business, nil
}

func (s *stubBusinessRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Business, error) {
	if s.business == nil || s.business.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.business, nil
}

func (s *stubBusinessRepo) TransitionPaymentStatusTx(tx *gorm.DB, id uuid.UUID, from, to enums.BusinessPaymentStatus) (bool, error) {
	if s.business == nil || s.business.PaymentStatus != from {
		return false, nil
	}
	s.business.PaymentStatus = to
	s.paymentStatus = to
	return true, nil
}

type stubUserRepo struct {
	user             *models.User
	storedCustomerID string
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	s.storedCustomerID = customerID
	return nil
}

type stubOrderCreator struct {
	created     int
	lastOrderID uuid.UUID
	lastBilling *types.BillingDetails
}

func (s *stubOrderCreator) CreateForPaymentTx(ctx context.Context, tx *gorm.DB, payment *models.Payment, business *models.Business, payer *models.User, billing *types.BillingDetails) (*models.Order, error) {
	s.created++
	s.lastBilling = billing
	s.lastOrderID = uuid.New()
	return &models.Order{ID: s.lastOrderID, PaymentID: payment.ID}, nil
}

type stubNotifier struct {
	sent []models.Notification
}

func (s *stubNotifier) NotifyTx(ctx context.Context, tx *gorm.DB, notification models.Notification) error {
	s.sent = append(s.sent, notification)
	return nil
}

type stubOutbox struct {
	emitted []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.emitted = append(s.emitted, event)
	return nil
}

type stubLocker struct{}

func (s *stubLocker) Acquire(ctx context.Context, scope, id string, ttl time.Duration) (redis.Unlocker, error) {
	return noopUnlocker{}, nil
}

type noopUnlocker struct{}

func (noopUnlocker) Unlock(ctx context.Context) error { return nil }

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubGateway struct {
	intent        *stripe.PaymentIntent
	customerID    string
	customerCalls int
	intentCalls   int
}

func (s *stubGateway) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	s.intentCalls++
	return s.intent, nil
}

func (s *stubGateway) GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	return s.intent, nil
}

func (s *stubGateway) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	s.customerCalls++
	return s.customerID, nil
}
