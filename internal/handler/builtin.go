package handler

import (
	"context"
	"fmt"
)

// Echo is the built-in "echo.handler": it wraps the event payload in a
// fixed envelope without interpreting it.
func Echo(ctx context.Context, payload []byte) ([]byte, error) {
	return []byte(fmt.Sprintf("Echoing request: '%s'", payload)), nil
}
