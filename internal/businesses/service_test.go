package businesses

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/outbox"
)

func newTestBusinessService(t *testing.T, repo *stubBusinessRepo) (*Service, *stubNotifier, *stubOutbox) {
	t.Helper()
	notifier := &stubNotifier{}
	emitter := &stubOutbox{}
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Tx:       stubTxRunner{},
		Notifier: notifier,
		Outbox:   emitter,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc, notifier, emitter
}

func TestService_CreateStartsAsUnpaidDraft(t *testing.T) {
	repo := &stubBusinessRepo{}
	svc, _, _ := newTestBusinessService(t, repo)

	ownerID := uuid.New()
	business, err := svc.Create(context.Background(), ownerID, CreateInput{Name: "Corner Cafe"})
	if err != nil {
		t.Fatalf("create business: %v", err)
	}
	if business.Status != enums.BusinessStatusDraft {
		t.Fatalf("unexpected status %s", business.Status)
	}
	if business.PaymentStatus != enums.BusinessPaymentPending {
		t.Fatalf("unexpected payment status %s", business.PaymentStatus)
	}
	if business.IsApproved {
		t.Fatal("new business must not be approved")
	}
	if business.OwnerID != ownerID {
		t.Fatal("owner must be recorded")
	}
}

func TestService_CreateRequiresName(t *testing.T) {
	svc, _, _ := newTestBusinessService(t, &stubBusinessRepo{})

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_ApproveRejectsUnpaidBusiness(t *testing.T) {
	repo := &stubBusinessRepo{}
	business := repo.seed(&models.Business{
		OwnerID:       uuid.New(),
		Name:          "Corner Cafe",
		PaymentStatus: enums.BusinessPaymentPending,
	})
	svc, notifier, emitter := newTestBusinessService(t, repo)

	_, err := svc.Approve(context.Background(), uuid.New(), business.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if business.IsApproved {
		t.Fatal("unpaid business must not be approved")
	}
	if len(notifier.sent) != 0 || len(emitter.events) != 0 {
		t.Fatal("rejected approval must not produce side effects")
	}
}

func TestService_ApprovePaidBusinessRunsSideEffects(t *testing.T) {
	repo := &stubBusinessRepo{}
	business := repo.seed(&models.Business{
		OwnerID:       uuid.New(),
		Name:          "Corner Cafe",
		PaymentStatus: enums.BusinessPaymentPaid,
	})
	svc, notifier, emitter := newTestBusinessService(t, repo)

	adminID := uuid.New()
	approved, err := svc.Approve(context.Background(), adminID, business.ID)
	if err != nil {
		t.Fatalf("approve business: %v", err)
	}
	if !approved.IsApproved || approved.ApprovedAt == nil {
		t.Fatal("business must be marked approved")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Type != enums.NotificationBusinessApproved {
		t.Fatalf("unexpected notifications %+v", notifier.sent)
	}
	if notifier.sent[0].UserID != business.OwnerID {
		t.Fatal("notification must target the owner")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventBusinessApproved {
		t.Fatalf("unexpected outbox events %+v", emitter.events)
	}
}

func TestService_ApproveIsIdempotent(t *testing.T) {
	repo := &stubBusinessRepo{}
	business := repo.seed(&models.Business{
		OwnerID:       uuid.New(),
		Name:          "Corner Cafe",
		PaymentStatus: enums.BusinessPaymentPaid,
		IsApproved:    true,
	})
	svc, notifier, emitter := newTestBusinessService(t, repo)

	if _, err := svc.Approve(context.Background(), uuid.New(), business.ID); err != nil {
		t.Fatalf("approve business: %v", err)
	}
	if len(notifier.sent) != 0 || len(emitter.events) != 0 {
		t.Fatal("re-approving must not repeat side effects")
	}
}

func TestService_RejectRevokesApprovalAndUnpublishes(t *testing.T) {
	repo := &stubBusinessRepo{}
	business := repo.seed(&models.Business{
		OwnerID:       uuid.New(),
		Name:          "Corner Cafe",
		PaymentStatus: enums.BusinessPaymentPaid,
		IsApproved:    true,
		Status:        enums.BusinessStatusPublished,
	})
	svc, notifier, emitter := newTestBusinessService(t, repo)

	rejected, err := svc.Reject(context.Background(), uuid.New(), business.ID, "listing violates content policy")
	if err != nil {
		t.Fatalf("reject business: %v", err)
	}
	if rejected.IsApproved || rejected.RejectedAt == nil {
		t.Fatal("rejection must revoke approval")
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason == "" {
		t.Fatal("rejection reason must be recorded")
	}
	if rejected.Status != enums.BusinessStatusDraft {
		t.Fatalf("rejected business must be unpublished, got %s", rejected.Status)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Type != enums.NotificationBusinessRejected {
		t.Fatalf("unexpected notifications %+v", notifier.sent)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventBusinessRejected {
		t.Fatalf("unexpected outbox events %+v", emitter.events)
	}
}

func TestService_RejectRequiresReason(t *testing.T) {
	repo := &stubBusinessRepo{}
	business := repo.seed(&models.Business{OwnerID: uuid.New(), Name: "Corner Cafe"})
	svc, _, _ := newTestBusinessService(t, repo)

	_, err := svc.Reject(context.Background(), uuid.New(), business.ID, "")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_SetStatusPublishRequiresPaidAndApproved(t *testing.T) {
	ownerID := uuid.New()
	repo := &stubBusinessRepo{}
	business := repo.seed(&models.Business{
		OwnerID:       ownerID,
		Name:          "Corner Cafe",
		PaymentStatus: enums.BusinessPaymentPending,
	})
	svc, _, _ := newTestBusinessService(t, repo)

	_, err := svc.SetStatus(context.Background(), ownerID, business.ID, enums.BusinessStatusPublished)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for unpaid business, got %v", err)
	}

	business.PaymentStatus = enums.BusinessPaymentPaid
	_, err = svc.SetStatus(context.Background(), ownerID, business.ID, enums.BusinessStatusPublished)
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for unapproved business, got %v", err)
	}

	business.IsApproved = true
	published, err := svc.SetStatus(context.Background(), ownerID, business.ID, enums.BusinessStatusPublished)
	if err != nil {
		t.Fatalf("publish business: %v", err)
	}
	if published.Status != enums.BusinessStatusPublished {
		t.Fatalf("unexpected status %s", published.Status)
	}
}

func TestService_SetStatusRejectsForeignBusiness(t *testing.T) {
	repo := &stubBusinessRepo{}
	business := repo.seed(&models.Business{OwnerID: uuid.New(), Name: "Corner Cafe"})
	svc, _, _ := newTestBusinessService(t, repo)

	_, err := svc.SetStatus(context.Background(), uuid.New(), business.ID, enums.BusinessStatusArchived)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestService_UpdateNeverTouchesModerationState(t *testing.T) {
	ownerID := uuid.New()
	repo := &stubBusinessRepo{}
	business := repo.seed(&models.Business{
		OwnerID:       ownerID,
		Name:          "Corner Cafe",
		PaymentStatus: enums.BusinessPaymentPaid,
		IsApproved:    true,
	})
	svc, _, _ := newTestBusinessService(t, repo)

	name := "Corner Cafe & Bakery"
	updated, err := svc.Update(context.Background(), ownerID, business.ID, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("update business: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("unexpected name %q", updated.Name)
	}
	if !updated.IsApproved || updated.PaymentStatus != enums.BusinessPaymentPaid {
		t.Fatal("owner edits must not change moderation or payment state")
	}
}

type stubBusinessRepo struct {
	rows []*models.Business
}

func (s *stubBusinessRepo) seed(business *models.Business) *models.Business {
	if business.ID == uuid.Nil {
		business.ID = uuid.New()
	}
	if business.Status == "" {
		business.Status = enums.BusinessStatusDraft
	}
	if business.PaymentStatus == "" {
		business.PaymentStatus = enums.BusinessPaymentPending
	}
	s.rows = append(s.rows, business)
	return business
}

func (s *stubBusinessRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubBusinessRepo) Create(ctx context.Context, business *models.Business) (*models.Business, error) {
	return s.seed(business), nil
}

func (s *stubBusinessRepo) Update(ctx context.Context, business *models.Business) error {
	for i, row := range s.rows {
		if row.ID == business.ID {
			s.rows[i] = business
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubBusinessRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	for _, row := range s.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubBusinessRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Business, error) {
	return s.FindByID(context.Background(), id)
}

func (s *stubBusinessRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Business, error) {
	var out []models.Business
	for _, row := range s.rows {
		if row.OwnerID == ownerID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubBusinessRepo) ListPublic(ctx context.Context, category string, limit, offset int) ([]models.Business, error) {
	var out []models.Business
	for _, row := range s.rows {
		if row.Status == enums.BusinessStatusPublished && row.IsApproved && row.PaymentStatus == enums.BusinessPaymentPaid {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubBusinessRepo) TransitionPaymentStatusTx(tx *gorm.DB, id uuid.UUID, from, to enums.BusinessPaymentStatus) (bool, error) {
	for _, row := range s.rows {
		if row.ID == id && row.PaymentStatus == from {
			row.PaymentStatus = to
			return true, nil
		}
	}
	return false, nil
}

type stubNotifier struct {
	sent []models.Notification
}

func (s *stubNotifier) NotifyTx(ctx context.Context, tx *gorm.DB, notification models.Notification) error {
	s.sent = append(s.sent, notification)
	return nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
