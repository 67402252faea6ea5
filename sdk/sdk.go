// Package sdk is the guest-side harness for wasm handler modules. The
// host delivers the event payload on stdin, names the target function
// in argv, and reads the result from stdout. Build guests with
// GOOS=wasip1 GOARCH=wasm.
package sdk

import (
	"fmt"
	"io"
	"os"
)

// HandlerFunc maps one event payload to one result payload.
type HandlerFunc func(payload []byte) ([]byte, error)

// Serve dispatches a single invocation to one of the named handlers
// and exits. The function name arrives as the first argument after the
// module name; a guest exporting exactly one handler also accepts an
// empty argv.
func Serve(handlers map[string]HandlerFunc) {
	fn, err := selectHandler(handlers)
	if err != nil {
		fatal(err)
	}

	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		fatal(fmt.Errorf("read event payload: %w", err))
	}

	result, err := fn(payload)
	if err != nil {
		fatal(err)
	}

	if _, err := os.Stdout.Write(result); err != nil {
		fatal(fmt.Errorf("write result payload: %w", err))
	}
}

func selectHandler(handlers map[string]HandlerFunc) (HandlerFunc, error) {
	var name string
	if len(os.Args) > 1 {
		name = os.Args[1]
	}

	if fn, ok := handlers[name]; ok {
		return fn, nil
	}
	if name == "" && len(handlers) == 1 {
		for _, fn := range handlers {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("no handler registered for %q", name)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
