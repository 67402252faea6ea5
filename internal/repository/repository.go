package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ignis-runtime/ignis-bootstrap/internal/models"
)

// ErrNotFound is returned when no invocation record exists for an id.
var ErrNotFound = errors.New("invocation not found")

// InvocationRepository defines the persistence operations for
// invocation records.
type InvocationRepository interface {
	Create(ctx context.Context, inv *models.Invocation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invocation, error)
	List(ctx context.Context, limit int) ([]*models.Invocation, error)
	MarkSucceeded(ctx context.Context, id uuid.UUID, resultSize int, durationMs int64) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorType, errorMessage string, durationMs int64) error
}
