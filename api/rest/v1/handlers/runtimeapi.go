package handlers

import (
	"context"
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
	"github.com/ignis-runtime/ignis-bootstrap/internal/logging"
	"github.com/ignis-runtime/ignis-bootstrap/internal/metrics"
	"github.com/ignis-runtime/ignis-bootstrap/internal/queue"
	"github.com/ignis-runtime/ignis-bootstrap/internal/repository"
	"github.com/ignis-runtime/ignis-bootstrap/internal/runtimeapi"
)

// RuntimeAPIHandlers implements the provider side of the pull-based
// invocation protocol: runtime hosts block on Next and post completion
// documents back under the invocation's correlation identifier.
type RuntimeAPIHandlers struct {
	queue   *queue.InvocationQueue
	repo    repository.InvocationRepository
	metrics *metrics.Metrics
}

func NewRuntimeAPIHandlers(q *queue.InvocationQueue, repo repository.InvocationRepository, m *metrics.Metrics) *RuntimeAPIHandlers {
	return &RuntimeAPIHandlers{queue: q, repo: repo, metrics: m}
}

// Next blocks until a pending invocation is available, then delivers
// its payload with the correlation identifier in the response headers.
func (h *RuntimeAPIHandlers) Next(c *gin.Context) error {
	inv, err := h.queue.Dequeue(c.Request.Context())
	if err != nil {
		// The polling host went away while we were blocked; there is
		// nobody left to answer.
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return v1.APIError{Code: http.StatusInternalServerError, Err: err.Error()}
	}

	c.Header(runtimeapi.HeaderInvocationID, inv.ID)
	if inv.DeadlineMs > 0 {
		c.Header(runtimeapi.HeaderDeadlineMs, strconv.FormatInt(inv.DeadlineMs, 10))
	}
	c.Data(http.StatusOK, "application/octet-stream", inv.Payload)
	return nil
}

// Response accepts a handler result and completes the invocation.
func (h *RuntimeAPIHandlers) Response(c *gin.Context) error {
	id := c.MustGet(middleware.InvocationIDKey).(uuid.UUID)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return v1.APIError{Code: http.StatusBadRequest, Err: "unreadable result payload"}
	}

	duration := h.complete(c, id, func(ctx context.Context, durationMs int64) error {
		return h.repo.MarkSucceeded(ctx, id, len(body), durationMs)
	})

	if err := h.queue.PushResult(c.Request.Context(), id.String(), &queue.Result{
		Status:  queue.StatusSucceeded,
		Payload: body,
	}); err != nil {
		return v1.APIError{Code: http.StatusInternalServerError, Err: err.Error()}
	}

	h.metrics.ObserveInvocation("success", duration)

	return v1.APIResponse{Code: http.StatusAccepted, Msg: "result accepted"}
}

// Error accepts a handler failure report and completes the invocation.
func (h *RuntimeAPIHandlers) Error(c *gin.Context) error {
	id := c.MustGet(middleware.InvocationIDKey).(uuid.UUID)

	var doc schemas.ErrorDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		return v1.APIError{Code: http.StatusBadRequest, Err: "malformed error document"}
	}

	duration := h.complete(c, id, func(ctx context.Context, durationMs int64) error {
		return h.repo.MarkFailed(ctx, id, doc.ErrorType, doc.ErrorMessage, durationMs)
	})

	if err := h.queue.PushResult(c.Request.Context(), id.String(), &queue.Result{
		Status:       queue.StatusFailed,
		ErrorType:    doc.ErrorType,
		ErrorMessage: doc.ErrorMessage,
	}); err != nil {
		return v1.APIError{Code: http.StatusInternalServerError, Err: err.Error()}
	}

	h.metrics.ObserveInvocation("error", duration)

	return v1.APIResponse{Code: http.StatusAccepted, Msg: "error accepted"}
}

// InitError records a runtime host failing before it could pull any
// invocation. Nothing is queued, so there is only something to log.
func (h *RuntimeAPIHandlers) InitError(c *gin.Context) error {
	var doc schemas.ErrorDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		return v1.APIError{Code: http.StatusBadRequest, Err: "malformed error document"}
	}

	logging.Op().Error("runtime host init failed", "error_type", doc.ErrorType, "error", doc.ErrorMessage)
	h.metrics.IncPost("init_error")

	return v1.APIResponse{Code: http.StatusAccepted, Msg: "init error recorded"}
}

// complete updates the invocation record and returns the measured
// duration. Record bookkeeping is best effort; the queue is the source
// of truth for result delivery.
func (h *RuntimeAPIHandlers) complete(c *gin.Context, id uuid.UUID, mark func(ctx context.Context, durationMs int64) error) time.Duration {
	ctx := c.Request.Context()

	var duration time.Duration
	if rec, err := h.repo.FindByID(ctx, id); err == nil {
		duration = time.Since(rec.ReceivedAt)
	}

	if err := mark(ctx, duration.Milliseconds()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		logging.Op().Warn("failed to update invocation record", "invocation", id, "error", err)
	}

	return duration
}
