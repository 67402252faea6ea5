package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignis-runtime/ignis-bootstrap/internal/models"
)

// memoryRepository keeps invocation records in process memory. Used by
// the emulator when no DATABASE_URL is configured, and by tests.
type memoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.Invocation
}

func NewMemoryRepository() InvocationRepository {
	return &memoryRepository{records: make(map[uuid.UUID]*models.Invocation)}
}

func (r *memoryRepository) Create(_ context.Context, inv *models.Invocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	r.records[inv.ID] = &cp
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Invocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *memoryRepository) List(_ context.Context, limit int) ([]*models.Invocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invs := make([]*models.Invocation, 0, len(r.records))
	for _, inv := range r.records {
		cp := *inv
		invs = append(invs, &cp)
	}
	sort.Slice(invs, func(i, j int) bool {
		return invs[i].ReceivedAt.After(invs[j].ReceivedAt)
	})
	if limit > 0 && len(invs) > limit {
		invs = invs[:limit]
	}
	return invs, nil
}

func (r *memoryRepository) MarkSucceeded(_ context.Context, id uuid.UUID, resultSize int, durationMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	inv.Status = models.StatusSucceeded
	inv.ResultSize = resultSize
	inv.CompletedAt = &now
	inv.DurationMs = durationMs
	return nil
}

func (r *memoryRepository) MarkFailed(_ context.Context, id uuid.UUID, errorType, errorMessage string, durationMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	inv.Status = models.StatusFailed
	inv.ErrorType = errorType
	inv.ErrorMessage = errorMessage
	inv.CompletedAt = &now
	inv.DurationMs = durationMs
	return nil
}
