package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ignis-runtime/ignis-bootstrap/internal/handler"
	"github.com/ignis-runtime/ignis-bootstrap/internal/metrics"
	"github.com/ignis-runtime/ignis-bootstrap/internal/runtimeapi"
)

// Poller bridges the provider's pull-based invocation protocol to the
// resolved handler: pull one event, run the handler to completion,
// post exactly one result under the event's correlation identifier,
// repeat. Invocations are processed strictly one at a time.
type Poller struct {
	client  *runtimeapi.Client
	handler handler.Handler
	log     *slog.Logger
	metrics *metrics.Metrics
}

// Options carries the explicit dependencies for a Poller. Handler and
// Client are required; Log and Metrics are optional.
type Options struct {
	Client  *runtimeapi.Client
	Handler handler.Handler
	Log     *slog.Logger
	Metrics *metrics.Metrics
}

func New(opts Options) *Poller {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		client:  opts.Client,
		handler: opts.Handler,
		log:     log,
		metrics: opts.Metrics,
	}
}

// Run executes the invocation loop until ctx ends or a transport
// failure occurs. Transport errors and malformed events are fatal by
// design: the process owns no retry policy, the provider does. Handler
// failures are reported through the error endpoint and the loop
// continues.
func (p *Poller) Run(ctx context.Context) error {
	for {
		inv, err := p.client.Next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}

		if err := p.dispatch(ctx, inv); err != nil {
			return err
		}
	}
}

// dispatch runs the handler for one event and posts its result. The
// returned error is non-nil only for failures that must stop the loop.
func (p *Poller) dispatch(ctx context.Context, inv *runtimeapi.Invocation) error {
	invCtx := ctx
	if !inv.Deadline.IsZero() {
		var cancel context.CancelFunc
		invCtx, cancel = context.WithDeadline(ctx, inv.Deadline)
		defer cancel()
	}

	start := time.Now()
	result, err := p.handler.Invoke(invCtx, inv.Payload)
	duration := time.Since(start)

	if err != nil {
		p.log.Error("handler failed", "invocation", inv.ID, "duration", duration, "error", err)
		p.metrics.ObserveInvocation("error", duration)

		invErr := asInvocationError(err)
		if postErr := p.client.PostError(ctx, inv.ID, invErr); postErr != nil {
			return postErr
		}
		p.metrics.IncPost("error")
		return nil
	}

	p.log.Info("invocation handled", "invocation", inv.ID, "duration", duration,
		"input_size", len(inv.Payload), "output_size", len(result))
	p.metrics.ObserveInvocation("success", duration)

	if err := p.client.PostResponse(ctx, inv.ID, result); err != nil {
		return err
	}
	p.metrics.IncPost("response")
	return nil
}

func asInvocationError(err error) *runtimeapi.InvocationError {
	var invErr *runtimeapi.InvocationError
	if errors.As(err, &invErr) {
		return invErr
	}
	return &runtimeapi.InvocationError{
		Type:    "Runtime.HandlerError",
		Message: err.Error(),
	}
}
