package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/config"
	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/metrics"
	"github.com/ahtisham774/spectech-backend/pkg/outbox"
	"github.com/ahtisham774/spectech-backend/pkg/redis"
	"github.com/ahtisham774/spectech-backend/pkg/types"
)

const (
	intentLockScope   = "payment_intent"
	defaultLockTTL    = 8 * time.Second
	metadataKeyUser   = "user_id"
	metadataKeyBiz    = "business_id"
	metadataKeyOrder  = "order_id"
	listingItemName   = "Business listing fee"
	listingDescFormat = "Listing fee for %s"
)

// errReconcileLost aborts a reconciliation transaction when a concurrent
// writer already applied the transition. Treated as a graceful no-op.
var errReconcileLost = errors.New("reconciliation lost to concurrent writer")

type businessRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Business, error)
	TransitionPaymentStatusTx(tx *gorm.DB, id uuid.UUID, from, to enums.BusinessPaymentStatus) (bool, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
}

type orderCreator interface {
	CreateForPaymentTx(ctx context.Context, tx *gorm.DB, payment *models.Payment, business *models.Business, payer *models.User, billing *types.BillingDetails) (*models.Order, error)
}

type notifier interface {
	NotifyTx(ctx context.Context, tx *gorm.DB, notification models.Notification) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type intentLocker interface {
	Acquire(ctx context.Context, scope, id string, ttl time.Duration) (redis.Unlocker, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Observation is one externally observed payment status, regardless of
// whether it arrived via synchronous confirmation, polling, or a webhook.
// Description, Metadata, and Billing are safe detail fields: they refresh
// the ledger row even when the status itself carries no transition.
type Observation struct {
	IntentID      string
	Status        enums.PaymentStatus
	FailureReason *string
	Description   *string
	Metadata      map[string]string
	Billing       *types.BillingDetails
}

// ObservationFromIntent lifts the observed status and the safe detail
// fields off a gateway intent.
func ObservationFromIntent(intent *stripe.PaymentIntent, status enums.PaymentStatus) Observation {
	obs := Observation{IntentID: intent.ID, Status: status}
	if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
		msg := intent.LastPaymentError.Msg
		obs.FailureReason = &msg
	}
	if intent.Description != "" {
		desc := intent.Description
		obs.Description = &desc
	}
	if len(intent.Metadata) > 0 {
		obs.Metadata = intent.Metadata
	}
	if charge := intent.LatestCharge; charge != nil && charge.BillingDetails != nil {
		if charge.BillingDetails.Name != "" || charge.BillingDetails.Email != "" {
			obs.Billing = &types.BillingDetails{
				Name:  charge.BillingDetails.Name,
				Email: charge.BillingDetails.Email,
			}
		}
	}
	return obs
}

// IntentResult is returned to the client after an intent is created.
// AlreadyPaid short-circuits intent creation: no gateway call, no ledger row.
type IntentResult struct {
	Payment      *models.Payment
	ClientSecret string
	AlreadyPaid  bool
}

// ServiceParams groups dependencies for the payment engine.
type ServiceParams struct {
	Repo         Repository
	BusinessRepo businessRepository
	UserRepo     userRepository
	Orders       orderCreator
	Notifier     notifier
	Outbox       outboxEmitter
	Gateway      Gateway
	Locker       intentLocker
	TxRunner     txRunner
	Logger       *logger.Logger
	Metrics      *metrics.PaymentMetrics
	Listing      config.ListingConfig
	LockTTL      time.Duration
}

// Service owns the payment ledger and the single reconciliation path that
// moves payments, orders, and business publication state together.
type Service struct {
	repo         Repository
	businessRepo businessRepository
	userRepo     userRepository
	orders       orderCreator
	notifier     notifier
	outbox       outboxEmitter
	gateway      Gateway
	locker       intentLocker
	txRunner     txRunner
	logg         *logger.Logger
	metrics      *metrics.PaymentMetrics
	listing      config.ListingConfig
	lockTTL      time.Duration
}

// NewService builds the payment engine.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("payments repo is required")
	}
	if params.BusinessRepo == nil {
		return nil, errors.New("business repo is required")
	}
	if params.UserRepo == nil {
		return nil, errors.New("user repo is required")
	}
	if params.Orders == nil {
		return nil, errors.New("order creator is required")
	}
	if params.Gateway == nil {
		return nil, errors.New("stripe gateway is required")
	}
	if params.Locker == nil {
		return nil, errors.New("intent locker is required")
	}
	if params.TxRunner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	lockTTL := params.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &Service{
		repo:         params.Repo,
		businessRepo: params.BusinessRepo,
		userRepo:     params.UserRepo,
		orders:       params.Orders,
		notifier:     params.Notifier,
		outbox:       params.Outbox,
		gateway:      params.Gateway,
		locker:       params.Locker,
		txRunner:     params.TxRunner,
		logg:         params.Logger,
		metrics:      params.Metrics,
		listing:      params.Listing,
		lockTTL:      lockTTL,
	}, nil
}

// CreateIntent opens a new payment attempt for the business listing fee and
// records a pending ledger row keyed by the Stripe intent id.
func (s *Service) CreateIntent(ctx context.Context, userID, businessID uuid.UUID) (*IntentResult, error) {
	business, err := s.businessRepo.FindByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	if business.OwnerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "business does not belong to the authenticated user")
	}
	if business.PaymentStatus == enums.BusinessPaymentPaid {
		s.logg.Info(s.logg.WithField(ctx, "business_id", businessID.String()), "intent request for already paid listing")
		return &IntentResult{AlreadyPaid: true}, nil
	}

	payer, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	customerID, err := s.ensureCustomer(ctx, payer)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf(listingDescFormat, business.Name)
	intent, err := s.gateway.CreateIntent(ctx, &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(s.listing.FeeAmountCents),
		Currency: stripe.String(s.listing.FeeCurrency),
		Customer: stripe.String(customerID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String(description),
		Metadata: map[string]string{
			metadataKeyUser: userID.String(),
			metadataKeyBiz:  businessID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe payment intent")
	}

	payment := &models.Payment{
		UserID:                userID,
		BusinessID:            businessID,
		StripePaymentIntentID: intent.ID,
		StripeCustomerID:      customerID,
		AmountCents:           s.listing.FeeAmountCents,
		Currency:              s.listing.FeeCurrency,
		Status:                enums.PaymentStatusPending,
		Description:           &description,
		Metadata: map[string]string{
			metadataKeyBiz: businessID.String(),
		},
	}
	if _, err := s.repo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
	}

	fields := map[string]any{
		"payment_id":  payment.ID.String(),
		"business_id": businessID.String(),
		"amount":      payment.AmountCents,
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "payment intent created")

	return &IntentResult{Payment: payment, ClientSecret: intent.ClientSecret}, nil
}

// Confirm re-reads the intent from Stripe after a client-side confirmation
// and feeds the observed status through the reconciliation path.
func (s *Service) Confirm(ctx context.Context, userID uuid.UUID, intentID string) (*models.Payment, error) {
	payment, err := s.authorizedPaymentByIntent(ctx, userID, intentID)
	if err != nil {
		return nil, err
	}
	return s.refreshFromGateway(ctx, payment)
}

// GetStatus returns the current ledger row after reconciling it against the
// live Stripe intent, so polling clients converge even when webhooks lag.
func (s *Service) GetStatus(ctx context.Context, userID, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment does not belong to the authenticated user")
	}
	return s.refreshFromGateway(ctx, payment)
}

// ListByUser returns the caller's payment history.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ReconcileStale polls the gateway for open payments that have not moved
// since the cutoff. It is the safety net for lost webhooks: each stale intent
// is re-read from Stripe and fed through the same reconciliation path. Rows
// that fail to refresh are logged and skipped so one bad intent cannot stall
// the sweep.
func (s *Service) ReconcileStale(ctx context.Context, updatedBefore time.Time, limit int) (int, error) {
	stale, err := s.repo.ListStaleNonTerminal(ctx, updatedBefore, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale payments")
	}
	reconciled := 0
	for i := range stale {
		payment := stale[i]
		if _, err := s.refreshFromGateway(ctx, &payment); err != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"payment_id": payment.ID.String(),
				"intent_id":  payment.StripePaymentIntentID,
			})
			logCtx = s.logg.WithField(logCtx, "error", err.Error())
			s.logg.Warn(logCtx, "stale payment refresh failed")
			continue
		}
		reconciled++
	}
	return reconciled, nil
}

func (s *Service) refreshFromGateway(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	intent, err := s.gateway.GetIntent(ctx, payment.StripePaymentIntentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe payment intent")
	}

	if status, known := MapIntentStatus(intent.Status); known {
		if err := s.ApplyObservation(ctx, ObservationFromIntent(intent, status)); err != nil {
			return nil, err
		}
	}

	refreshed, err := s.repo.FindByIntentID(ctx, payment.StripePaymentIntentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
	}
	return refreshed, nil
}

func (s *Service) authorizedPaymentByIntent(ctx context.Context, userID uuid.UUID, intentID string) (*models.Payment, error) {
	payment, err := s.repo.FindByIntentID(ctx, intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment does not belong to the authenticated user")
	}
	return payment, nil
}

func (s *Service) ensureCustomer(ctx context.Context, payer *models.User) (string, error) {
	if payer.StripeCustomerID != nil && *payer.StripeCustomerID != "" {
		return *payer.StripeCustomerID, nil
	}
	customerID, err := s.gateway.EnsureCustomer(ctx, payer.Email, payer.DisplayName())
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure stripe customer")
	}
	if err := s.userRepo.SetStripeCustomerID(ctx, payer.ID, customerID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist stripe customer id")
	}
	return customerID, nil
}

// ApplyObservation is the single reconciliation path for every observed
// status. Concurrent observers of the same intent are serialized by a
// distributed lock, and the final status write is a compare-and-set so a
// lost race degrades to a no-op instead of a double-applied side effect.
func (s *Service) ApplyObservation(ctx context.Context, obs Observation) error {
	if obs.IntentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	if !obs.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status")
	}

	lock, err := s.locker.Acquire(ctx, intentLockScope, obs.IntentID, s.lockTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire intent lock")
	}
	defer func() {
		if unlockErr := lock.Unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", unlockErr.Error()), "releasing intent lock failed")
		}
	}()

	outcome := "applied"
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.reconcileTx(ctx, tx, obs, &outcome)
	})
	if errors.Is(err, errReconcileLost) {
		outcome = "lost_race"
		err = nil
	}
	if s.metrics != nil {
		s.metrics.IncReconciliation(string(obs.Status), outcome)
	}
	return err
}

func (s *Service) reconcileTx(ctx context.Context, tx *gorm.DB, obs Observation, outcome *string) error {
	repo := s.repo.WithTx(tx)

	payment, err := repo.FindByIntentID(ctx, obs.IntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Observation for an intent this platform never issued.
			*outcome = "unknown_intent"
			s.logg.Warn(s.logg.WithField(ctx, "intent_id", obs.IntentID), "observation for unknown payment intent")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"payment_id":  payment.ID.String(),
		"business_id": payment.BusinessID.String(),
		"from_status": string(payment.Status),
		"to_status":   string(obs.Status),
	})

	if payment.Status == obs.Status {
		// Redelivery of an applied status. The transition stays a no-op,
		// but the gateway may have fresher description/metadata.
		*outcome = "noop_equal"
		if obs.Description == nil && len(obs.Metadata) == 0 {
			return nil
		}
		if err := repo.UpdateDetails(ctx, payment.ID, obs.Description, mergeMetadata(payment.Metadata, obs.Metadata)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh payment details")
		}
		return nil
	}
	if payment.Status.IsTerminal() {
		*outcome = "noop_terminal"
		s.logg.Warn(ctx, "ignoring status observation for terminal payment")
		return nil
	}

	switch obs.Status {
	case enums.PaymentStatusSucceeded:
		return s.applySuccess(ctx, tx, repo, payment, obs, outcome)
	case enums.PaymentStatusFailed, enums.PaymentStatusCanceled:
		return s.applyFailure(ctx, tx, repo, payment, obs)
	default:
		// Intermediate status. Record it, nothing else moves.
		if err := repo.TransitionStatus(ctx, payment.ID, payment.Status, obs.Status, nil); err != nil {
			if errors.Is(err, ErrStatusCASFailed) {
				return errReconcileLost
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		return nil
	}
}

// applySuccess performs the first-success side effects. The payment status
// write happens last: if it loses the compare-and-set, every side effect in
// this transaction rolls back and the winner's effects stand alone.
func (s *Service) applySuccess(ctx context.Context, tx *gorm.DB, repo Repository, payment *models.Payment, obs Observation, outcome *string) error {
	business, err := s.businessRepo.FindByIDTx(tx, payment.BusinessID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	if business.PaymentStatus == enums.BusinessPaymentPaid {
		// A different payment already paid this listing. Keep this row
		// out of succeeded so the ledger names exactly one winning payment.
		*outcome = "noop_already_paid"
		s.logg.Warn(ctx, "business already paid by another payment")
		return nil
	}

	payer, err := s.userRepo.FindByID(ctx, payment.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payer")
	}

	order, err := s.orders.CreateForPaymentTx(ctx, tx, payment, business, payer, obs.Billing)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	// The order id goes back onto the ledger row so payment and order
	// reference each other without a join.
	metadata := mergeMetadata(payment.Metadata, obs.Metadata)
	if metadata == nil {
		metadata = types.Metadata{}
	}
	metadata[metadataKeyOrder] = order.ID.String()
	if err := repo.UpdateDetails(ctx, payment.ID, obs.Description, metadata); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link order to payment")
	}

	moved, err := s.businessRepo.TransitionPaymentStatusTx(tx, business.ID, business.PaymentStatus, enums.BusinessPaymentPaid)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark business paid")
	}
	if !moved {
		return errReconcileLost
	}

	if s.notifier != nil {
		notification := models.Notification{
			UserID: payment.UserID,
			Type:   enums.NotificationListingPaid,
			Title:  "Listing payment received",
			Body:   fmt.Sprintf("Your payment for %s was received. The listing is awaiting approval.", business.Name),
			Data: map[string]string{
				metadataKeyBiz:   business.ID.String(),
				metadataKeyOrder: order.ID.String(),
			},
		}
		if err := s.notifier.NotifyTx(ctx, tx, notification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue notification")
		}
	}

	if s.outbox != nil {
		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentSucceeded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Data: map[string]any{
				"payment_id":  payment.ID.String(),
				"business_id": business.ID.String(),
				"order_id":    order.ID.String(),
				"amount":      payment.AmountCents,
				"currency":    payment.Currency,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit outbox event")
		}
	}

	if err := repo.TransitionStatus(ctx, payment.ID, payment.Status, enums.PaymentStatusSucceeded, nil); err != nil {
		if errors.Is(err, ErrStatusCASFailed) {
			return errReconcileLost
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment succeeded")
	}

	s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "payment succeeded, listing paid")
	return nil
}

func (s *Service) applyFailure(ctx context.Context, tx *gorm.DB, repo Repository, payment *models.Payment, obs Observation) error {
	business, err := s.businessRepo.FindByIDTx(tx, payment.BusinessID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}

	// A paid listing stays paid either way: an abandoned retry must not
	// unpublish the business.
	switch {
	case obs.Status == enums.PaymentStatusFailed && business.PaymentStatus == enums.BusinessPaymentPending:
		if _, err := s.businessRepo.TransitionPaymentStatusTx(tx, business.ID, business.PaymentStatus, enums.BusinessPaymentFailed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark business payment failed")
		}
	case obs.Status == enums.PaymentStatusCanceled && business.PaymentStatus == enums.BusinessPaymentFailed:
		// Cancellation wipes the stale failure marker so the owner's next
		// intent starts from a clean pending listing.
		if _, err := s.businessRepo.TransitionPaymentStatusTx(tx, business.ID, business.PaymentStatus, enums.BusinessPaymentPending); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset business payment status")
		}
	}

	if s.notifier != nil && obs.Status == enums.PaymentStatusFailed {
		notification := models.Notification{
			UserID: payment.UserID,
			Type:   enums.NotificationListingFailed,
			Title:  "Listing payment failed",
			Body:   fmt.Sprintf("Your payment for %s did not go through. Please try again.", business.Name),
			Data: map[string]string{
				metadataKeyBiz: business.ID.String(),
			},
		}
		if err := s.notifier.NotifyTx(ctx, tx, notification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue notification")
		}
	}

	if s.outbox != nil {
		eventType := enums.EventPaymentFailed
		if obs.Status == enums.PaymentStatusCanceled {
			eventType = enums.EventPaymentCanceled
		}
		event := outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Data: map[string]any{
				"payment_id":  payment.ID.String(),
				"business_id": business.ID.String(),
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit outbox event")
		}
	}

	if err := repo.TransitionStatus(ctx, payment.ID, payment.Status, obs.Status, obs.FailureReason); err != nil {
		if errors.Is(err, ErrStatusCASFailed) {
			return errReconcileLost
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
	}

	s.logg.Info(ctx, "payment reconciled to terminal failure state")
	return nil
}

// mergeMetadata overlays observed gateway metadata onto the stored map
// without dropping keys this platform wrote, like the order link. Returns
// nil when there is nothing to write.
func mergeMetadata(base types.Metadata, observed map[string]string) types.Metadata {
	if len(base) == 0 && len(observed) == 0 {
		return nil
	}
	merged := make(types.Metadata, len(base)+len(observed))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range observed {
		merged[k] = v
	}
	return merged
}
