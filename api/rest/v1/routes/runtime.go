package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ignis-runtime/ignis-bootstrap/api/rest/server"
	v1 "github.com/ignis-runtime/ignis-bootstrap/api/rest/v1"
	"github.com/ignis-runtime/ignis-bootstrap/api/rest/v1/handlers"
	"github.com/ignis-runtime/ignis-bootstrap/api/rest/v1/middleware"
)

// runtimeRoutes exposes the pull-based invocation protocol consumed by
// runtime hosts.
func runtimeRoutes(srv *server.Server, router gin.IRoutes) {
	h := handlers.NewRuntimeAPIHandlers(srv.Queue, srv.Repo, srv.Metrics)

	router.GET("/runtime/invocation/next", v1.ErrorHandler(h.Next))
	router.POST("/runtime/invocation/:id/response", middleware.InvocationIDValidator(), v1.ErrorHandler(h.Response))
	router.POST("/runtime/invocation/:id/error", middleware.InvocationIDValidator(), v1.ErrorHandler(h.Error))
	router.POST("/runtime/init/error", v1.ErrorHandler(h.InitError))
}
