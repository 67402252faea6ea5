package routes

import (
	"github.com/ignis-runtime/ignis-bootstrap/api/rest/server"
)

// RegisterRoutes mounts the runtime API and the invoke API under the
// versioned prefix.
func RegisterRoutes(srv *server.Server) {
	apiv1 := srv.Engine.Group("/api/v1")
	runtimeRoutes(srv, apiv1)
	invokeRoutes(srv, apiv1)
}
