package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/config"
	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
)

type stubDB struct{}

func (stubDB) Ping(context.Context) error { return nil }

func (stubDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type failedMark struct {
	id      uuid.UUID
	backoff time.Duration
}

type stubOutboxRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []failedMark
	fetchErr  error
}

func (s *stubOutboxRepo) FetchUnpublishedForPublish(_ *gorm.DB, limit, _ int) ([]models.OutboxEvent, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if len(s.events) > limit {
		return s.events[:limit], nil
	}
	out := s.events
	s.events = nil
	return out, nil
}

func (s *stubOutboxRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	s.published = append(s.published, id)
	return nil
}

func (s *stubOutboxRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error, backoff time.Duration) error {
	s.failed = append(s.failed, failedMark{id: id, backoff: backoff})
	return nil
}

type stubResult struct {
	err error
}

func (r stubResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "msg-1", nil
}

type stubPublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (p *stubPublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	return stubResult{err: p.err}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, repo *stubOutboxRepo, pub *stubPublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     testLogger(),
		DB:         stubDB{},
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func outboxRow(eventType enums.OutboxEventType) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregatePayment,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		CreatedAt:     time.Now().UTC(),
	}
}

func TestService_ProcessBatchPublishesAndMarks(t *testing.T) {
	first := outboxRow(enums.EventPaymentSucceeded)
	second := outboxRow(enums.EventBusinessApproved)
	repo := &stubOutboxRepo{events: []models.OutboxEvent{first, second}}
	pub := &stubPublisher{}
	svc := newTestService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to report work done")
	}
	if len(pub.messages) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(pub.messages))
	}
	if got := pub.messages[0].Attributes["event_type"]; got != string(enums.EventPaymentSucceeded) {
		t.Fatalf("unexpected event_type attribute %q", got)
	}
	if len(repo.published) != 2 || repo.published[0] != first.ID || repo.published[1] != second.ID {
		t.Fatalf("unexpected published marks %v", repo.published)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("expected no failure marks, got %v", repo.failed)
	}
}

func TestService_ProcessBatchMarksFailureWithBackoff(t *testing.T) {
	row := outboxRow(enums.EventPaymentFailed)
	row.Attempts = 2
	repo := &stubOutboxRepo{events: []models.OutboxEvent{row}}
	pub := &stubPublisher{err: errors.New("topic unavailable")}
	svc := newTestService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to report work done")
	}
	if len(repo.published) != 0 {
		t.Fatalf("expected no published marks, got %v", repo.published)
	}
	if len(repo.failed) != 1 {
		t.Fatalf("expected 1 failure mark, got %d", len(repo.failed))
	}
	if repo.failed[0].id != row.ID {
		t.Fatalf("failure marked for wrong event %s", repo.failed[0].id)
	}
	if want := retryBackoff(3); repo.failed[0].backoff != want {
		t.Fatalf("expected backoff %v, got %v", want, repo.failed[0].backoff)
	}
}

func TestService_ProcessBatchEmptyOutbox(t *testing.T) {
	repo := &stubOutboxRepo{}
	pub := &stubPublisher{}
	svc := newTestService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed {
		t.Fatal("expected idle batch")
	}
	if len(pub.messages) != 0 {
		t.Fatalf("expected no publishes, got %d", len(pub.messages))
	}
}

func TestRetryBackoffDoublesAndCaps(t *testing.T) {
	if got := retryBackoff(1); got != retryBackoffBase {
		t.Fatalf("attempt 1: got %v", got)
	}
	if got := retryBackoff(2); got != 2*retryBackoffBase {
		t.Fatalf("attempt 2: got %v", got)
	}
	if got := retryBackoff(100); got != retryBackoffMax {
		t.Fatalf("attempt 100: got %v, want cap %v", got, retryBackoffMax)
	}
}
