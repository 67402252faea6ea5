package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pendingKey         = "ignis:queue:pending"
	invocationPrefix   = "ignis:invocation:"
	defaultEntryTTL    = 15 * time.Minute
	dequeuePollTimeout = 1 * time.Second
)

// ErrResultTimeout is returned by AwaitResult when no result document
// arrives before the deadline.
var ErrResultTimeout = errors.New("timed out waiting for invocation result")

// Statuses carried in result documents.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// PendingInvocation is one queued event awaiting a runtime host.
type PendingInvocation struct {
	ID         string
	Payload    []byte
	DeadlineMs int64 // unix milliseconds, 0 when absent
}

// Result is the completion document moved from the runtime-API side of
// the emulator back to the caller blocked in AwaitResult.
type Result struct {
	Status       string `json:"status"`
	Payload      []byte `json:"payload,omitempty"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// InvocationQueue is a Redis list-backed push-pull queue. LPUSH/BRPOP
// delivers each pending invocation to exactly one polling runtime host
// and queues signals instead of dropping them when no host is
// connected.
type InvocationQueue struct {
	client   *redis.Client
	entryTTL time.Duration
}

func New(client *redis.Client) *InvocationQueue {
	return &InvocationQueue{client: client, entryTTL: defaultEntryTTL}
}

// Enqueue stores the event payload and makes the invocation visible to
// the next Dequeue.
func (q *InvocationQueue) Enqueue(ctx context.Context, inv *PendingInvocation) error {
	eventKey := invocationPrefix + inv.ID + ":event"

	fields := map[string]any{"payload": inv.Payload}
	if inv.DeadlineMs > 0 {
		fields["deadline_ms"] = inv.DeadlineMs
	}
	if err := q.client.HSet(ctx, eventKey, fields).Err(); err != nil {
		return fmt.Errorf("store event: %w", err)
	}
	q.client.Expire(ctx, eventKey, q.entryTTL)

	if err := q.client.LPush(ctx, pendingKey, inv.ID).Err(); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks until a pending invocation is available or ctx ends.
// BRPOP uses a short timeout so a disconnected client does not leave a
// goroutine blocked forever.
func (q *InvocationQueue) Dequeue(ctx context.Context) (*PendingInvocation, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := q.client.BRPop(ctx, dequeuePollTimeout, pendingKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("dequeue: %w", err)
		}

		// result is [key, value]
		id := result[1]
		return q.loadEvent(ctx, id)
	}
}

func (q *InvocationQueue) loadEvent(ctx context.Context, id string) (*PendingInvocation, error) {
	eventKey := invocationPrefix + id + ":event"
	fields, err := q.client.HGetAll(ctx, eventKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load event %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("event %s expired before delivery", id)
	}

	inv := &PendingInvocation{ID: id, Payload: []byte(fields["payload"])}
	if ms, ok := fields["deadline_ms"]; ok {
		inv.DeadlineMs, _ = strconv.ParseInt(ms, 10, 64)
	}
	return inv, nil
}

// PushResult hands a completion document to the caller awaiting id.
func (q *InvocationQueue) PushResult(ctx context.Context, id string, res *Result) error {
	doc, err := json.Marshal(res)
	if err != nil {
		return err
	}

	resultKey := invocationPrefix + id + ":result"
	if err := q.client.LPush(ctx, resultKey, doc).Err(); err != nil {
		return fmt.Errorf("push result: %w", err)
	}
	q.client.Expire(ctx, resultKey, q.entryTTL)
	return nil
}

// AwaitResult blocks until the completion document for id arrives.
func (q *InvocationQueue) AwaitResult(ctx context.Context, id string, timeout time.Duration) (*Result, error) {
	resultKey := invocationPrefix + id + ":result"

	popped, err := q.client.BRPop(ctx, timeout, resultKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrResultTimeout
	}
	if err != nil {
		return nil, fmt.Errorf("await result: %w", err)
	}

	var res Result
	if err := json.Unmarshal([]byte(popped[1]), &res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &res, nil
}
