// Package server exposes the tracker over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"plate-go/internal/config"
	"plate-go/internal/plate"
)

const shutdownTimeout = 10 * time.Second

// maxImageBytes bounds uploaded frames.
const maxImageBytes = 10 << 20

// Server serves one tracker session over HTTP.
type Server struct {
	cfg     config.ServerConfig
	tracker *plate.Tracker
	reports *plate.ReportService
	logger  plate.Logger
	engine  *gin.Engine
}

// New creates a Server and registers its routes.
func New(cfg config.ServerConfig, tracker *plate.Tracker, reports *plate.ReportService, logger plate.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:     cfg,
		tracker: tracker,
		reports: reports,
		logger:  logger,
		engine:  gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLog())
	if len(cfg.AllowedOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	api := s.engine.Group("/api")
	{
		api.GET("/state", s.getState)

		capture := api.Group("/capture")
		{
			capture.POST("/start", s.startCapture)
			capture.POST("/stop", s.stopCapture)
			capture.POST("/frame", s.captureFrame)
			capture.POST("/image", s.submitImage)
		}

		api.POST("/search", s.search)
		api.POST("/entries/:id/edit", s.editEntry)

		draft := api.Group("/draft")
		{
			draft.PUT("/servings", s.setServings)
			draft.PATCH("", s.reviseDraft)
			draft.POST("/confirm", s.confirmDraft)
			draft.POST("/discard", s.discardDraft)
			draft.DELETE("", s.deleteEntry)
		}

		api.POST("/water", s.logWater)
		api.DELETE("/water", s.resetWater)
		api.PUT("/steps", s.setSteps)

		api.POST("/export", s.export)
		api.GET("/exports", s.listExports)
	}
}

// Run listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "address", s.cfg.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return <-errCh
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
