package reviews

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

func newTestReviewService(t *testing.T, repo *stubReviewRepo, business *models.Business) (*Service, *stubNotifier, *stubOutbox) {
	t.Helper()
	notifier := &stubNotifier{}
	emitter := &stubOutbox{}
	svc, err := NewService(ServiceParams{
		Repo:       repo,
		Businesses: &stubBusinessReader{business: business},
		Users:      &stubUserReader{},
		Notifier:   notifier,
		Outbox:     emitter,
		Tx:         stubTxRunner{},
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc, notifier, emitter
}

func TestService_SubmitCreatesReviewWithSideEffects(t *testing.T) {
	business := &models.Business{ID: uuid.New(), OwnerID: uuid.New(), Name: "Corner Cafe"}
	repo := &stubReviewRepo{}
	svc, notifier, emitter := newTestReviewService(t, repo, business)

	userID := uuid.New()
	review, err := svc.Submit(context.Background(), userID, business.ID, Input{Rating: 4})
	if err != nil {
		t.Fatalf("submit review: %v", err)
	}
	if review.Rating != 4 {
		t.Fatalf("unexpected rating %d", review.Rating)
	}
	if repo.refreshes != 1 {
		t.Fatalf("rating aggregate must refresh once, got %d", repo.refreshes)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Type != enums.NotificationNewReview {
		t.Fatalf("unexpected notifications %+v", notifier.sent)
	}
	if notifier.sent[0].UserID != business.OwnerID {
		t.Fatal("notification must target the business owner")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventReviewCreated {
		t.Fatalf("unexpected outbox events %+v", emitter.events)
	}
}

func TestService_SubmitUpdatesExistingReviewInPlace(t *testing.T) {
	business := &models.Business{ID: uuid.New(), OwnerID: uuid.New(), Name: "Corner Cafe"}
	repo := &stubReviewRepo{}
	svc, notifier, emitter := newTestReviewService(t, repo, business)

	userID := uuid.New()
	first, err := svc.Submit(context.Background(), userID, business.ID, Input{Rating: 2})
	if err != nil {
		t.Fatalf("submit review: %v", err)
	}
	second, err := svc.Submit(context.Background(), userID, business.ID, Input{Rating: 5})
	if err != nil {
		t.Fatalf("resubmit review: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("resubmission must update the existing row")
	}
	if second.Rating != 5 {
		t.Fatalf("unexpected rating %d", second.Rating)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected a single review row, got %d", len(repo.created))
	}
	// Only the first submission announces the review.
	if len(notifier.sent) != 1 || len(emitter.events) != 1 {
		t.Fatal("update must not repeat announcement side effects")
	}
}

func TestService_SubmitValidatesRatingBounds(t *testing.T) {
	business := &models.Business{ID: uuid.New(), OwnerID: uuid.New()}
	svc, _, _ := newTestReviewService(t, &stubReviewRepo{}, business)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Submit(context.Background(), uuid.New(), business.ID, Input{Rating: rating})
		appErr := pkgerrors.As(err)
		if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("rating %d must be rejected, got %v", rating, err)
		}
	}
}

func TestService_SubmitRejectsOwnBusiness(t *testing.T) {
	ownerID := uuid.New()
	business := &models.Business{ID: uuid.New(), OwnerID: ownerID}
	svc, _, _ := newTestReviewService(t, &stubReviewRepo{}, business)

	_, err := svc.Submit(context.Background(), ownerID, business.ID, Input{Rating: 5})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type stubReviewRepo struct {
	created   []*models.Review
	refreshes int
}

func (s *stubReviewRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubReviewRepo) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	review.ID = uuid.New()
	s.created = append(s.created, review)
	return review, nil
}

func (s *stubReviewRepo) Update(ctx context.Context, review *models.Review) error {
	for i, row := range s.created {
		if row.ID == review.ID {
			s.created[i] = review
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubReviewRepo) FindByUserAndBusiness(ctx context.Context, userID, businessID uuid.UUID) (*models.Review, error) {
	for _, row := range s.created {
		if row.UserID == userID && row.BusinessID == businessID {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubReviewRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]models.Review, error) {
	return nil, nil
}

func (s *stubReviewRepo) RefreshBusinessRating(ctx context.Context, businessID uuid.UUID) error {
	s.refreshes++
	return nil
}

type stubBusinessReader struct {
	business *models.Business
}

func (s *stubBusinessReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	if s.business != nil && s.business.ID == id {
		return s.business, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubUserReader struct{}

func (s *stubUserReader) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id, Email: "reviewer@example.com", FirstName: "Sam", LastName: "Lee"}, nil
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
