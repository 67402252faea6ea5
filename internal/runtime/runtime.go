package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bytecodealliance/wasmtime-go/v41"
	"github.com/google/uuid"
)

// Runtime executes one invocation payload and returns the raw result.
type Runtime interface {
	Execute(ctx context.Context, payload []byte) ([]byte, error)
	Close(ctx context.Context) error
}

// NewEngine returns an engine configured the way execution sessions
// expect: epoch interruption on, so a context can stop a running
// module. Modules must be compiled and deserialized on engines with
// the same configuration.
func NewEngine() *wasmtime.Engine {
	cfg := wasmtime.NewConfig()
	cfg.SetEpochInterruption(true)
	return wasmtime.NewEngineWithConfig(cfg)
}

// Config builds a Runtime. Construction is cheap; Instantiate performs
// the heavy initialization.
type Config interface {
	Instantiate() (Runtime, error)
}

// Session represents a single execution context: a compiled module and
// the stdin/stdout descriptors the guest exchanges payloads through.
type Session struct {
	ID       uuid.UUID
	Args     []string
	Engine   *wasmtime.Engine
	Module   *wasmtime.Module
	Stdin    *os.File
	Stdout   *os.File
	TaskRoot string
}

// NewStore configures the WASI environment for one run. The task root
// is preopened read-only at "/" so guests can load auxiliary files
// staged next to their module.
func (s *Session) NewStore() (*wasmtime.Store, *wasmtime.Linker, error) {
	store := wasmtime.NewStore(s.Engine)
	linker := wasmtime.NewLinker(s.Engine)

	wasiConfig := wasmtime.NewWasiConfig()
	wasiConfig.SetStdinFile(s.Stdin.Name())
	wasiConfig.SetStdoutFile(s.Stdout.Name())
	wasiConfig.InheritStderr()
	wasiConfig.InheritEnv()
	wasiConfig.SetArgv(s.Args)

	dir, err := s.preopenDir()
	if err != nil {
		return nil, nil, err
	}
	wasiConfig.PreopenDir(dir, "/", wasmtime.DIR_READ, wasmtime.FILE_READ)

	store.SetWasi(wasiConfig)

	if err := linker.DefineWasi(); err != nil {
		return nil, nil, fmt.Errorf("wasi link: %w", err)
	}

	return store, linker, nil
}

// Run executes the module's _start export once.
func (s *Session) Run(store *wasmtime.Store, linker *wasmtime.Linker) error {
	instance, err := linker.Instantiate(store, s.Module)
	if err != nil {
		return fmt.Errorf("instantiation failed: %w", err)
	}

	start := instance.GetFunc(store, "_start")
	if start == nil {
		return errors.New("missing _start function")
	}

	_, err = start.Call(store)

	// WASI exit code 0 surfaces as an error from wasmtime.
	if err != nil {
		if exitErr, ok := err.(*wasmtime.Error); ok {
			if code, ok := exitErr.ExitStatus(); ok && code == 0 {
				return nil
			}
		}
		return fmt.Errorf("execution error: %w", err)
	}

	return nil
}

func (s *Session) preopenDir() (string, error) {
	if s.TaskRoot != "" {
		return s.TaskRoot, nil
	}
	return os.Getwd()
}

// Cleanup releases the session's temporary resources.
func (s *Session) Cleanup() {
	cleanupSessionDescriptors(s)
	if s.Engine != nil {
		s.Engine.Close()
	}
	if s.Module != nil {
		s.Module.Close()
	}
}
