// Package api is the HTTP surface over the action pipeline: action CRUD,
// execution and apply endpoints, and the registry listings the action
// editor needs.
package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/divisionAI-co/d5-management-system-sub002/internal/execution"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/registry"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/store"
)

// BulkQueue queues background bulk runs. Nil when background jobs are
// disabled; the endpoint then reports 503.
type BulkQueue interface {
	QueueBulkAction(ctx context.Context, actionID, triggeredByID int64, extraInstructions string) error
}

// Server represents the API server
type Server struct {
	echo       *echo.Echo
	addr       string
	service    *execution.Service
	registry   *registry.Registry
	actions    *store.ActionStore
	executions *store.ExecutionStore
	queue      BulkQueue
}

// NewServer creates a new API server
func NewServer(addr string, service *execution.Service, reg *registry.Registry, actions *store.ActionStore, executions *store.ExecutionStore, queue BulkQueue) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:       e,
		addr:       addr,
		service:    service,
		registry:   reg,
		actions:    actions,
		executions: executions,
		queue:      queue,
	}

	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	v1 := s.echo.Group("/api/v1")

	// Registry listings
	v1.GET("/entity-types", s.listEntityTypes)
	v1.GET("/entity-types/:type/fields", s.listFields)
	v1.GET("/entity-types/:type/collections", s.listCollections)
	v1.GET("/entity-types/:type/collections/:key/fields", s.listCollectionFields)

	// Actions
	v1.GET("/actions", s.listActions)
	v1.POST("/actions", s.createAction)
	v1.GET("/actions/:id", s.getAction)
	v1.PUT("/actions/:id", s.updateAction)
	v1.DELETE("/actions/:id", s.deleteAction)
	v1.POST("/actions/:id/execute", s.executeAction)
	v1.POST("/actions/:id/execute-bulk", s.executeActionBulk)

	// Executions
	v1.GET("/executions", s.listExecutions)
	v1.GET("/executions/:id", s.getExecution)
	v1.POST("/executions/:id/apply", s.applyExecution)
}

// Start begins the API server and blocks until interrupted.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
