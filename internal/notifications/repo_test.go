package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  data TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func insertNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time, readAt *time.Time) models.Notification {
	t.Helper()

	n := models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      enums.NotificationBusinessApproved,
		Title:     "Business approved",
		Body:      "Your listing is live.",
		ReadAt:    readAt,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&n).Error)
	return n
}

func TestRepositoryListByUserFiltersUnread(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	now := time.Now().UTC()
	readTime := now.Add(-time.Hour)

	insertNotification(t, db, userID, now.Add(-2*time.Hour), &readTime)
	unread := insertNotification(t, db, userID, now.Add(-time.Minute), nil)
	insertNotification(t, db, uuid.New(), now, nil)

	all, err := repo.ListByUser(ctx, userID, false, 20, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, unread.ID, all[0].ID, "newest first")

	unreadOnly, err := repo.ListByUser(ctx, userID, true, 20, 0)
	require.NoError(t, err)
	require.Len(t, unreadOnly, 1)
	assert.Equal(t, unread.ID, unreadOnly[0].ID)

	count, err := repo.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryMarkReadIsIdempotent(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	n := insertNotification(t, db, userID, time.Now().UTC(), nil)

	require.NoError(t, repo.MarkRead(ctx, n.ID))

	first, err := repo.FindByID(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)

	// A second mark must not move the read timestamp.
	require.NoError(t, repo.MarkRead(ctx, n.ID))
	second, err := repo.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ReadAt.Unix(), second.ReadAt.Unix())
}

func TestRepositoryMarkAllRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	insertNotification(t, db, userID, time.Now().UTC(), nil)
	insertNotification(t, db, userID, time.Now().UTC(), nil)
	other := insertNotification(t, db, uuid.New(), time.Now().UTC(), nil)

	require.NoError(t, repo.MarkAllRead(ctx, userID))

	count, err := repo.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)

	otherCount, err := repo.CountUnread(ctx, other.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), otherCount)
}

func TestRepositoryDeleteOlderThanKeepsUnread(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	now := time.Now().UTC()
	readTime := now.Add(-40 * 24 * time.Hour)

	oldRead := insertNotification(t, db, userID, now.Add(-45*24*time.Hour), &readTime)
	oldUnread := insertNotification(t, db, userID, now.Add(-45*24*time.Hour), nil)
	fresh := insertNotification(t, db, userID, now.Add(-time.Hour), &readTime)

	deleted, err := repo.DeleteOlderThan(ctx, nil, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByID(ctx, oldRead.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	for _, id := range []uuid.UUID{oldUnread.ID, fresh.ID} {
		_, err := repo.FindByID(ctx, id)
		assert.NoError(t, err)
	}
}
