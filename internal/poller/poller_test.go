package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignis-runtime/ignis-bootstrap/internal/handler"
	"github.com/ignis-runtime/ignis-bootstrap/internal/runtimeapi"
)

type post struct {
	id   string
	kind string // "response" or "error"
	body []byte
}

// controlEndpoint is a scripted provider: it serves the configured
// events in order, records every posted result, and blocks the next
// poll once the script is exhausted, like a provider with no work.
type controlEndpoint struct {
	t      *testing.T
	ids    []string
	events [][]byte

	mu    sync.Mutex
	next  int
	posts []post
	trace []string // interleaving of deliveries and posts

	done chan struct{}
}

func newControlEndpoint(t *testing.T, ids []string, events [][]byte) *controlEndpoint {
	return &controlEndpoint{t: t, ids: ids, events: events, done: make(chan struct{})}
}

func (ce *controlEndpoint) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/runtime/invocation/next", func(w http.ResponseWriter, r *http.Request) {
		ce.mu.Lock()
		i := ce.next
		ce.next++
		if i < len(ce.events) {
			ce.trace = append(ce.trace, "next:"+ce.ids[i])
		}
		ce.mu.Unlock()

		if i >= len(ce.events) {
			<-r.Context().Done()
			return
		}
		w.Header().Set(runtimeapi.HeaderInvocationID, ce.ids[i])
		_, _ = w.Write(ce.events[i])
	})

	mux.HandleFunc("/api/v1/runtime/invocation/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/runtime/invocation/"), "/")
		require.Len(ce.t, parts, 2)
		body, _ := io.ReadAll(r.Body)

		ce.mu.Lock()
		ce.posts = append(ce.posts, post{id: parts[0], kind: parts[1], body: body})
		ce.trace = append(ce.trace, parts[1]+":"+parts[0])
		finished := len(ce.posts) == len(ce.events)
		ce.mu.Unlock()

		w.WriteHeader(http.StatusAccepted)
		if finished {
			close(ce.done)
		}
	})

	return mux
}

func TestRunDeliversPayloadsVerbatimAndInOrder(t *testing.T) {
	ids := []string{"11111111-1111-1111-1111-111111111111", "22222222-2222-2222-2222-222222222222"}
	events := [][]byte{[]byte(`{"text":"Hello"}`), []byte("\x00\x01binary\xff")}

	ce := newControlEndpoint(t, ids, events)
	srv := httptest.NewServer(ce.handler())
	defer srv.Close()

	var mu sync.Mutex
	var seen [][]byte
	echo := handler.HandlerFunc(func(ctx context.Context, payload []byte) ([]byte, error) {
		mu.Lock()
		seen = append(seen, payload)
		mu.Unlock()
		return []byte(fmt.Sprintf("Echoing request: '%s'", payload)), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := New(Options{Client: runtimeapi.NewClient(srv.URL), Handler: echo})
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	select {
	case <-ce.done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not complete the scripted events")
	}
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	// The handler saw each payload byte-identical.
	mu.Lock()
	require.Equal(t, events, seen)
	mu.Unlock()

	// Each result was posted under its event's correlation identifier.
	require.Len(t, ce.posts, 2)
	for i, got := range ce.posts {
		assert.Equal(t, ids[i], got.id)
		assert.Equal(t, "response", got.kind)
		assert.Equal(t, []byte(fmt.Sprintf("Echoing request: '%s'", events[i])), got.body)
	}

	// One invocation is processed fully before the next is requested.
	assert.Equal(t, []string{
		"next:" + ids[0], "response:" + ids[0],
		"next:" + ids[1], "response:" + ids[1],
	}, ce.trace)
}

func TestRunReportsHandlerFailureAndContinues(t *testing.T) {
	ids := []string{"aaaaaaaa-0000-0000-0000-000000000001", "aaaaaaaa-0000-0000-0000-000000000002"}
	events := [][]byte{[]byte("first"), []byte("second")}

	ce := newControlEndpoint(t, ids, events)
	srv := httptest.NewServer(ce.handler())
	defer srv.Close()

	failing := handler.HandlerFunc(func(ctx context.Context, payload []byte) ([]byte, error) {
		if string(payload) == "first" {
			return nil, errors.New("boom")
		}
		return []byte("ok"), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := New(Options{Client: runtimeapi.NewClient(srv.URL), Handler: failing})
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	select {
	case <-ce.done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not complete the scripted events")
	}
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	require.Len(t, ce.posts, 2)

	assert.Equal(t, ids[0], ce.posts[0].id)
	assert.Equal(t, "error", ce.posts[0].kind)
	var doc map[string]string
	require.NoError(t, json.Unmarshal(ce.posts[0].body, &doc))
	assert.Equal(t, "Runtime.HandlerError", doc["errorType"])
	assert.Equal(t, "boom", doc["errorMessage"])

	// The loop survived the failure and served the second event.
	assert.Equal(t, ids[1], ce.posts[1].id)
	assert.Equal(t, "response", ce.posts[1].kind)
}

func TestRunFatalOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from the first poll

	p := New(Options{
		Client:  runtimeapi.NewClient(srv.URL),
		Handler: handler.HandlerFunc(func(ctx context.Context, payload []byte) ([]byte, error) { return payload, nil }),
	})

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.Canceled)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ce := newControlEndpoint(t, nil, nil) // provider with no work: next blocks
	srv := httptest.NewServer(ce.handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	p := New(Options{
		Client:  runtimeapi.NewClient(srv.URL),
		Handler: handler.HandlerFunc(func(ctx context.Context, payload []byte) ([]byte, error) { return payload, nil }),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("poller did not stop on context cancellation")
	}
}
