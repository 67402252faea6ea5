package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignis-runtime/ignis-bootstrap/internal/metrics"
	"github.com/ignis-runtime/ignis-bootstrap/internal/queue"
	"github.com/ignis-runtime/ignis-bootstrap/internal/repository"
)

// Server is the emulator's HTTP surface: the runtime API polled by
// runtime hosts plus the client-facing invoke API.
type Server struct {
	Addr   string
	Engine *gin.Engine

	Queue         *queue.InvocationQueue
	Repo          repository.InvocationRepository
	Metrics       *metrics.Metrics
	InvokeTimeout time.Duration
}

func NewServer(addr string, q *queue.InvocationQueue, repo repository.InvocationRepository, m *metrics.Metrics, invokeTimeout time.Duration) *Server {
	gin.SetMode(gin.ReleaseMode)
	return &Server{
		Addr:          addr,
		Engine:        gin.Default(),
		Queue:         q,
		Repo:          repo,
		Metrics:       m,
		InvokeTimeout: invokeTimeout,
	}
}

func (s *Server) Run() error {
	return s.Engine.Run(s.Addr)
}
