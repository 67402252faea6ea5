package handler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytecodealliance/wasmtime-go/v41"
	"github.com/google/uuid"
	"github.com/ignis-runtime/ignis-bootstrap/internal/cache"
	"github.com/ignis-runtime/ignis-bootstrap/internal/runtime"
	"github.com/ignis-runtime/ignis-bootstrap/internal/runtime/wasm"
	"github.com/ignis-runtime/ignis-bootstrap/internal/utils"
)

const moduleCacheTTL = 2 * time.Hour

// WasmHandler invokes a function exported by a wasm module staged in
// the task root. The module is compiled once at resolution time; each
// invocation instantiates a fresh session so no state leaks between
// events.
type WasmHandler struct {
	serialized []byte
	raw        []byte
	moduleName string
	function   string
	taskRoot   string
	checksum   string
}

// NewWasmHandler loads and compiles the module at path, following the
// check cache -> compile -> store cache workflow when a module cache is
// available.
func NewWasmHandler(ctx context.Context, path, function, taskRoot string, c *cache.RedisCache) (*WasmHandler, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}

	h := &WasmHandler{
		raw:        raw,
		moduleName: strings.TrimSuffix(filepath.Base(path), ".wasm"),
		function:   function,
		taskRoot:   taskRoot,
		checksum:   utils.Checksum(raw),
	}

	if c != nil {
		if cached, exists := c.Get(ctx, h.checksum); exists {
			h.serialized = cached
			return h, nil
		}
	}

	engine := runtime.NewEngine()
	defer engine.Close()
	module, err := wasmtime.NewModule(engine, raw)
	if err != nil {
		return nil, fmt.Errorf("compilation failed: %w", err)
	}
	defer module.Close()

	serialized, err := module.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialization failed: %w", err)
	}
	h.serialized = serialized

	if c != nil {
		_ = c.Set(ctx, h.checksum, serialized, moduleCacheTTL)
	}

	return h, nil
}

// Checksum identifies the compiled module for logging.
func (h *WasmHandler) Checksum() string {
	return h.checksum
}

// Invoke runs the module once with the payload on stdin. The exported
// function name is passed as argv so the guest harness can dispatch.
func (h *WasmHandler) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	cfg := wasm.NewConfig(uuid.New()).
		WithSerializedModule(h.serialized).
		WithRawModule(h.raw).
		WithTaskRoot(h.taskRoot).
		WithArgs([]string{h.moduleName, h.function})

	rt, err := cfg.Instantiate()
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate runtime: %w", err)
	}
	defer rt.Close(ctx)

	result, err := rt.Execute(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("runtime execution failed: %w", err)
	}
	return result, nil
}
