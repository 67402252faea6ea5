package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ignis-runtime/ignis-bootstrap/api/rest/server"
	v1 "github.com/ignis-runtime/ignis-bootstrap/api/rest/v1"
	"github.com/ignis-runtime/ignis-bootstrap/api/rest/v1/handlers"
	"github.com/ignis-runtime/ignis-bootstrap/api/rest/v1/middleware"
)

// invokeRoutes exposes the client-facing invoke and inspection API.
func invokeRoutes(srv *server.Server, router gin.IRoutes) {
	h := handlers.NewInvokeHandlers(srv.Queue, srv.Repo, srv.Metrics, srv.InvokeTimeout)

	router.POST("/invoke", v1.ErrorHandler(h.Invoke))
	router.GET("/invocations", v1.ErrorHandler(h.List))
	router.GET("/invocations/:id", middleware.InvocationIDValidator(), v1.ErrorHandler(h.Get))
}
