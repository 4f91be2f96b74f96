package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
	"github.com/johnquangdev/telemed-assistant/internal/domain/repositories"
)

func setupRepository(t *testing.T) (repositories.CallRequestRepository, *clock.Mock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a second connection would open a fresh in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&entities.CallRequest{}))

	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	return NewCallRequestRepository(db, clk), clk
}

func insertRequest(t *testing.T, repo repositories.CallRequestRepository, id string, at time.Time) {
	t.Helper()
	req := entities.NewCallRequest(id, entities.ParticipantInfo{ID: "p-" + id, Name: "John Doe"}, nil, "Room-"+id, at)
	require.NoError(t, repo.Insert(context.Background(), req))
}

func TestCallRequestRepository_InsertAndFind(t *testing.T) {
	repo, clk := setupRepository(t)
	ctx := context.Background()

	insertRequest(t, repo, "a", clk.Now())

	got, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", got.CallerName)
	assert.Equal(t, "Room-a", got.RoomName)
	assert.Equal(t, entities.CallRequestStatusPending, got.Status)
	assert.Equal(t, clk.Now().UnixMilli(), got.CreatedAt)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrCallRequestNotFound)
}

func TestCallRequestRepository_FindAllPending(t *testing.T) {
	repo, clk := setupRepository(t)
	ctx := context.Background()

	insertRequest(t, repo, "a", clk.Now())
	insertRequest(t, repo, "b", clk.Now().Add(time.Second))
	insertRequest(t, repo, "c", clk.Now().Add(2*time.Second))

	_, err := repo.UpdateStatus(ctx, "b", entities.CallRequestStatusDeclined, repositories.StatusUpdate{})
	require.NoError(t, err)

	pending, err := repo.FindAllPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ID)
	assert.Equal(t, "c", pending[1].ID)
}

func TestCallRequestRepository_FindAllPendingSameMillisecond(t *testing.T) {
	repo, clk := setupRepository(t)
	ctx := context.Background()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		id, err := uuid.NewV7()
		require.NoError(t, err)
		ids = append(ids, id.String())
		insertRequest(t, repo, id.String(), clk.Now())
	}

	pending, err := repo.FindAllPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, len(ids))
	for i, req := range pending {
		assert.Equal(t, ids[i], req.ID)
	}
}

func TestCallRequestRepository_PurgeCreatedBeforeDistantPast(t *testing.T) {
	repo, clk := setupRepository(t)
	ctx := context.Background()
	insertRequest(t, repo, "a", clk.Now())

	removed, err := repo.PurgeOlderThan(ctx, time.Duration(math.MaxInt64))
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = repo.FindByID(ctx, "a")
	assert.NoError(t, err)
}

func TestCallRequestRepository_UpdateStatus(t *testing.T) {
	repo, clk := setupRepository(t)
	ctx := context.Background()
	insertRequest(t, repo, "a", clk.Now())

	accepted, err := repo.UpdateStatus(ctx, "a", entities.CallRequestStatusAccepted, repositories.StatusUpdate{
		Callee: &entities.ParticipantInfo{ID: "doc-1", Name: "Dr. X"},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.CallRequestStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)
	require.NotNil(t, accepted.Callee())
	assert.Equal(t, "Dr. X", accepted.Callee().Name)

	_, err = repo.UpdateStatus(ctx, "a", entities.CallRequestStatusDeclined, repositories.StatusUpdate{})
	assert.ErrorIs(t, err, entities.ErrCallRequestResolved)

	_, err = repo.UpdateStatus(ctx, "missing", entities.CallRequestStatusAccepted, repositories.StatusUpdate{})
	assert.ErrorIs(t, err, entities.ErrCallRequestNotFound)

	_, err = repo.UpdateStatus(ctx, "a", entities.CallRequestStatus("timeout"), repositories.StatusUpdate{})
	assert.ErrorIs(t, err, entities.ErrInvalidRequest)

	stored, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, entities.CallRequestStatusAccepted, stored.Status)
	assert.Nil(t, stored.DeclinedAt)
}

func TestCallRequestRepository_PurgeOlderThan(t *testing.T) {
	repo, clk := setupRepository(t)
	ctx := context.Background()

	start := clk.Now()
	insertRequest(t, repo, "old", start)
	insertRequest(t, repo, "edge", start.Add(time.Hour))
	insertRequest(t, repo, "new", start.Add(2*time.Hour))
	_, err := repo.UpdateStatus(ctx, "old", entities.CallRequestStatusAccepted, repositories.StatusUpdate{})
	require.NoError(t, err)

	clk.Set(start.Add(2 * time.Hour))

	old, err := repo.ListCreatedBefore(ctx, clk.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, "old", old[0].ID)

	removed, err := repo.PurgeOlderThan(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindByID(ctx, "old")
	assert.ErrorIs(t, err, entities.ErrCallRequestNotFound)
	_, err = repo.FindByID(ctx, "edge")
	assert.NoError(t, err)
}
