package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	v1 "github.com/ignis-runtime/ignis-bootstrap/api/rest/v1"
	"github.com/ignis-runtime/ignis-bootstrap/api/rest/v1/middleware"
	"github.com/ignis-runtime/ignis-bootstrap/api/rest/v1/schemas"
	"github.com/ignis-runtime/ignis-bootstrap/internal/metrics"
	"github.com/ignis-runtime/ignis-bootstrap/internal/models"
	"github.com/ignis-runtime/ignis-bootstrap/internal/queue"
	"github.com/ignis-runtime/ignis-bootstrap/internal/repository"
	"github.com/ignis-runtime/ignis-bootstrap/internal/runtimeapi"
)

const defaultListLimit = 50

// InvokeHandlers is the client-facing side of the emulator: accept an
// event, queue it for the polling runtime host, block until the result
// document arrives, and relay it.
type InvokeHandlers struct {
	queue   *queue.InvocationQueue
	repo    repository.InvocationRepository
	metrics *metrics.Metrics
	timeout time.Duration
}

func NewInvokeHandlers(q *queue.InvocationQueue, repo repository.InvocationRepository, m *metrics.Metrics, timeout time.Duration) *InvokeHandlers {
	return &InvokeHandlers{queue: q, repo: repo, metrics: m, timeout: timeout}
}

// Invoke queues one event and waits for its completion.
func (h *InvokeHandlers) Invoke(c *gin.Context) error {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return v1.APIError{Code: http.StatusBadRequest, Err: "unreadable event payload"}
	}

	id := uuid.New()
	now := time.Now()

	if err := h.repo.Create(c.Request.Context(), &models.Invocation{
		ID:         id,
		Status:     models.StatusPending,
		EventSize:  len(payload),
		ReceivedAt: now,
	}); err != nil {
		return v1.APIError{Code: http.StatusInternalServerError, Err: err.Error()}
	}

	if err := h.queue.Enqueue(c.Request.Context(), &queue.PendingInvocation{
		ID:         id.String(),
		Payload:    payload,
		DeadlineMs: now.Add(h.timeout).UnixMilli(),
	}); err != nil {
		return v1.APIError{Code: http.StatusInternalServerError, Err: err.Error()}
	}
	// The gauge tracks invocations a client is still waiting on, so the
	// decrement pairs with every exit path including the timeout.
	h.metrics.AddPending(1)
	defer h.metrics.AddPending(-1)

	result, err := h.queue.AwaitResult(c.Request.Context(), id.String(), h.timeout)
	if err != nil {
		if errors.Is(err, queue.ErrResultTimeout) {
			return v1.APIError{
				Code: http.StatusGatewayTimeout,
				Err:  "no result within the invoke timeout",
				Data: gin.H{"id": id.String()},
			}
		}
		return v1.APIError{Code: http.StatusInternalServerError, Err: err.Error()}
	}

	if result.Status == queue.StatusFailed {
		return v1.APIError{
			Code: http.StatusBadGateway,
			Err:  result.ErrorMessage,
			Data: schemas.ErrorDocument{ErrorType: result.ErrorType, ErrorMessage: result.ErrorMessage},
		}
	}

	c.Header(runtimeapi.HeaderInvocationID, id.String())
	c.Data(http.StatusOK, "application/octet-stream", result.Payload)
	return nil
}

// List returns the most recent invocation records.
func (h *InvokeHandlers) List(c *gin.Context) error {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	invs, err := h.repo.List(c.Request.Context(), limit)
	if err != nil {
		return v1.APIError{Code: http.StatusInternalServerError, Err: "failed to list invocations"}
	}

	responses := make([]schemas.InvocationResponse, 0, len(invs))
	for _, inv := range invs {
		responses = append(responses, toResponse(inv))
	}

	return v1.APIResponse{Code: http.StatusOK, Msg: "invocations", Data: responses}
}

// Get returns one invocation record.
func (h *InvokeHandlers) Get(c *gin.Context) error {
	id := c.MustGet(middleware.InvocationIDKey).(uuid.UUID)

	inv, err := h.repo.FindByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return v1.APIError{Code: http.StatusNotFound, Err: "invocation not found"}
	}
	if err != nil {
		return v1.APIError{Code: http.StatusInternalServerError, Err: err.Error()}
	}

	return v1.APIResponse{Code: http.StatusOK, Msg: "invocation", Data: toResponse(inv)}
}

func toResponse(inv *models.Invocation) schemas.InvocationResponse {
	return schemas.InvocationResponse{
		ID:           inv.ID.String(),
		Status:       inv.Status,
		EventSize:    inv.EventSize,
		ResultSize:   inv.ResultSize,
		ErrorType:    inv.ErrorType,
		ErrorMessage: inv.ErrorMessage,
		ReceivedAt:   inv.ReceivedAt,
		CompletedAt:  inv.CompletedAt,
		DurationMs:   inv.DurationMs,
	}
}
