package runtimeapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextReturnsInvocation(t *testing.T) {
	deadline := time.Now().Add(30 * time.Second).UnixMilli()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/runtime/invocation/next", r.URL.Path)

		w.Header().Set(HeaderInvocationID, "abc123")
		w.Header().Set(HeaderDeadlineMs, strconv.FormatInt(deadline, 10))
		_, _ = w.Write([]byte(`{"text":"Hello"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	inv, err := client.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "abc123", inv.ID)
	assert.Equal(t, []byte(`{"text":"Hello"}`), inv.Payload)
	assert.Equal(t, time.UnixMilli(deadline), inv.Deadline)
}

func TestNextMissingCorrelationHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload without identity"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), HeaderInvocationID)
}

func TestNextUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Next(context.Background())
	require.Error(t, err)
}

func TestPostResponseTargetsCorrelationID(t *testing.T) {
	var gotPath string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.PostResponse(context.Background(), "abc123", []byte("result bytes"))
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/runtime/invocation/abc123/response", gotPath)
	assert.Equal(t, []byte("result bytes"), gotBody)
}

func TestPostErrorSendsDocument(t *testing.T) {
	var gotPath string
	var doc map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.PostError(context.Background(), "abc123", &InvocationError{
		Type:    "Runtime.HandlerError",
		Message: "boom",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/runtime/invocation/abc123/error", gotPath)
	assert.Equal(t, "Runtime.HandlerError", doc["errorType"])
	assert.Equal(t, "boom", doc["errorMessage"])
}

func TestPostRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.PostResponse(context.Background(), "abc123", nil)
	require.Error(t, err)
}

func TestNewClientNormalizesEndpoint(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1:9001":               "http://127.0.0.1:9001/api/v1",
		"http://localhost:9001":        "http://localhost:9001/api/v1",
		"http://localhost:9001/":       "http://localhost:9001/api/v1",
		"http://localhost:9001/api/v1": "http://localhost:9001/api/v1",
	}

	for endpoint, want := range cases {
		client := NewClient(endpoint)
		assert.Equal(t, want, client.baseURL, "endpoint %q", endpoint)
	}
}
