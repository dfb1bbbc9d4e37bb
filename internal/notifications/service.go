package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ServiceParams groups dependencies for the notifications service.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

// Service records and serves in-app notifications. Rows are written inside
// the transactions of the domain actions that produce them; delivery fan-out
// is external.
type Service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds a notifications service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{repo: params.Repo, logg: params.Logger}, nil
}

// NotifyTx writes a notification row inside the caller's transaction so it
// commits or rolls back with the action that produced it.
func (s *Service) NotifyTx(ctx context.Context, tx *gorm.DB, notification models.Notification) error {
	if notification.UserID == uuid.Nil {
		return errors.New("notification user is required")
	}
	if !notification.Type.IsValid() {
		return errors.New("unknown notification type")
	}
	_, err := s.repo.WithTx(tx).Create(ctx, &notification)
	return err
}

// ListForUser returns a page of the caller's notifications.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

// UnreadCount returns the caller's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

// MarkRead marks one of the caller's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	notification, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification")
	}
	if notification.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "notification does not belong to the authenticated user")
	}
	if err := s.repo.MarkRead(ctx, notificationID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	return nil
}

// MarkAllRead marks every unread notification of the caller as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return nil
}
