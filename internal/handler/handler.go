package handler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ignis-runtime/ignis-bootstrap/internal/cache"
)

// Handler maps one opaque event payload to one opaque result payload.
type Handler interface {
	Invoke(ctx context.Context, payload []byte) ([]byte, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload []byte) ([]byte, error)

func (f HandlerFunc) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	return f(ctx, payload)
}

// Registry holds built-in handlers addressable by their full
// "file.function" reference.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns a registry preloaded with the built-in handlers.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.Register("echo.handler", HandlerFunc(Echo))
	return r
}

func (r *Registry) Register(ref string, h Handler) {
	r.handlers[ref] = h
}

func (r *Registry) Get(ref string) (Handler, bool) {
	h, ok := r.handlers[ref]
	return h, ok
}

// SplitRef parses a "file.function" handler reference. The function
// name follows the last dot so file names may themselves contain dots.
func SplitRef(ref string) (file, function string, err error) {
	idx := strings.LastIndex(ref, ".")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", fmt.Errorf("invalid handler reference %q, want \"file.function\"", ref)
	}
	return ref[:idx], ref[idx+1:], nil
}

// Resolver turns the configured handler reference into a concrete
// Handler. Resolution happens once at startup; the poller never
// dispatches by name per invocation.
type Resolver struct {
	Registry *Registry
	TaskRoot string
	Cache    *cache.RedisCache // optional compiled-module cache
}

// Resolve prefers a registered built-in under the full reference, then
// falls back to a wasm module staged in the task root.
func (r *Resolver) Resolve(ctx context.Context, ref string) (Handler, error) {
	if r.Registry != nil {
		if h, ok := r.Registry.Get(ref); ok {
			return h, nil
		}
	}

	file, function, err := SplitRef(ref)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(r.TaskRoot, file+".wasm")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("handler %q not found: no built-in registered and no module at %s", ref, path)
	}

	return NewWasmHandler(ctx, path, function, r.TaskRoot, r.Cache)
}
