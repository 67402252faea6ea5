package wasm

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bytecodealliance/wasmtime-go/v41"
	"github.com/google/uuid"
	"github.com/ignis-runtime/ignis-bootstrap/internal/runtime"
)

// WasmRuntime executes a compiled wasm module once per invocation:
// the payload goes in on stdin, the result comes back on stdout.
type WasmRuntime struct {
	session runtime.Session
}

// config handles the construction of a WasmRuntime.
type config struct {
	id               uuid.UUID
	serializedModule []byte
	rawModule        []byte
	taskRoot         string
	args             []string
	err              error
}

// NewConfig initializes a new builder with the required session ID.
func NewConfig(id uuid.UUID) *config {
	if id == uuid.Nil {
		return &config{err: fmt.Errorf("invalid session ID")}
	}
	return &config{id: id}
}

// WithSerializedModule provides pre-compiled bytes, e.g. fetched from
// the module cache.
func (b *config) WithSerializedModule(data []byte) *config {
	b.serializedModule = data
	return b
}

// WithRawModule provides raw wasm bytes compiled on instantiation when
// no serialized module is available or deserialization fails.
func (b *config) WithRawModule(data []byte) *config {
	b.rawModule = data
	return b
}

func (b *config) WithTaskRoot(dir string) *config {
	b.taskRoot = dir
	return b
}

func (b *config) WithArgs(args []string) *config {
	b.args = args
	return b
}

// Instantiate finalizes the construction and performs the heavy
// initialization.
func (b *config) Instantiate() (runtime.Runtime, error) {
	if b.err != nil {
		return nil, b.err
	}

	engine := runtime.NewEngine()

	var module *wasmtime.Module
	if len(b.serializedModule) > 0 {
		m, err := wasmtime.NewModuleDeserialize(engine, b.serializedModule)
		if err == nil {
			module = m
		}
		// Deserialization failure falls through to raw compilation.
	}
	if module == nil && len(b.rawModule) > 0 {
		m, err := wasmtime.NewModule(engine, b.rawModule)
		if err != nil {
			engine.Close()
			return nil, fmt.Errorf("compilation failed: %w", err)
		}
		module = m
	}
	if module == nil {
		engine.Close()
		return nil, fmt.Errorf("no usable module bytes")
	}

	stdinFile, stdoutFile, err := runtime.CreateIoDescriptors(b.id)
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("io setup failed: %w", err)
	}

	return &WasmRuntime{
		session: runtime.Session{
			ID:       b.id,
			Args:     b.args,
			Engine:   engine,
			Module:   module,
			Stdin:    stdinFile,
			Stdout:   stdoutFile,
			TaskRoot: b.taskRoot,
		},
	}, nil
}

// Execute runs the module with the payload on stdin and returns the
// bytes the guest wrote to stdout. A done or expired ctx stops the
// guest through epoch interruption.
func (r *WasmRuntime) Execute(ctx context.Context, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.resetFile(r.session.Stdin); err != nil {
		return nil, err
	}

	if _, err := r.session.Stdin.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to write guest stdin: %w", err)
	}
	_ = r.session.Stdin.Sync()

	store, linker, err := r.session.NewStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	store.SetEpochDeadline(1)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			r.session.Engine.IncrementEpoch()
		case <-done:
		}
	}()

	err = r.session.Run(store, linker)
	close(done)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	if _, err := r.session.Stdout.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek guest stdout: %w", err)
	}

	return io.ReadAll(r.session.Stdout)
}

func (r *WasmRuntime) resetFile(f *os.File) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek failed: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate failed: %w", err)
	}
	return nil
}

func (r *WasmRuntime) Close(ctx context.Context) error {
	r.session.Cleanup()
	return nil
}
