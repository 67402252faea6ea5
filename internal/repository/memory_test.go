package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignis-runtime/ignis-bootstrap/internal/models"
)

func TestMemoryRepositoryLifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, repo.Create(ctx, &models.Invocation{
		ID:         id,
		Status:     models.StatusPending,
		EventSize:  16,
		ReceivedAt: time.Now(),
	}))

	inv, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, inv.Status)

	require.NoError(t, repo.MarkSucceeded(ctx, id, 42, 7))

	inv, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSucceeded, inv.Status)
	assert.Equal(t, 42, inv.ResultSize)
	assert.EqualValues(t, 7, inv.DurationMs)
	assert.NotNil(t, inv.CompletedAt)
}

func TestMemoryRepositoryMarkFailed(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, repo.Create(ctx, &models.Invocation{
		ID:         id,
		Status:     models.StatusPending,
		ReceivedAt: time.Now(),
	}))
	require.NoError(t, repo.MarkFailed(ctx, id, "Runtime.HandlerError", "boom", 3))

	inv, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, inv.Status)
	assert.Equal(t, "Runtime.HandlerError", inv.ErrorType)
	assert.Equal(t, "boom", inv.ErrorMessage)
}

func TestMemoryRepositoryNotFound(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.MarkSucceeded(ctx, uuid.New(), 0, 0), ErrNotFound)
	assert.ErrorIs(t, repo.MarkFailed(ctx, uuid.New(), "", "", 0), ErrNotFound)
}

func TestMemoryRepositoryListNewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	base := time.Now()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		id := uuid.New()
		ids = append(ids, id)
		require.NoError(t, repo.Create(ctx, &models.Invocation{
			ID:         id,
			Status:     models.StatusPending,
			ReceivedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	invs, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, invs, 2)
	assert.Equal(t, ids[2], invs[0].ID)
	assert.Equal(t, ids[1], invs[1].ID)
}
