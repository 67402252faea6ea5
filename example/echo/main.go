// Guest implementation of the echo handler. Stage the compiled module
// as echo.wasm in the task root and set IGNIS_HANDLER=echo.handler.
//
//	GOOS=wasip1 GOARCH=wasm go build -o echo.wasm ./example/echo
package main

import (
	"fmt"

	"github.com/ignis-runtime/ignis-bootstrap/sdk"
)

func main() {
	sdk.Serve(map[string]sdk.HandlerFunc{
		"handler": func(payload []byte) ([]byte, error) {
			return []byte(fmt.Sprintf("Echoing request: '%s'", payload)), nil
		},
	})
}
