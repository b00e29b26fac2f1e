// Package server exposes stored jobs, analyses and on-demand ingest over a
// JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/amishk599/canjobs/internal/ai"
	"github.com/amishk599/canjobs/internal/ingest"
	"github.com/amishk599/canjobs/internal/model"
)

// Ingester runs one fetch-and-insert cycle.
type Ingester interface {
	Run(ctx context.Context, req ingest.Request) (ingest.Result, error)
}

// JobAnalyzer analyzes a stored job against the caller's skills.
type JobAnalyzer interface {
	AnalyzeJob(ctx context.Context, jobID int64, yourSkills []string, refresh bool) (ai.Result, error)
}

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins []string // "*" allows any origin
	Cities      []string
	DefaultDays int
}

// Server is the HTTP API.
type Server struct {
	store    model.JobStore
	analyzer JobAnalyzer
	ingester Ingester
	opts     Options
	logger   *slog.Logger
	engine   *gin.Engine
}

// New builds the gin engine with CORS, request ids, request logging and all routes.
func New(store model.JobStore, analyzer JobAnalyzer, ingester Ingester, opts Options, logger *slog.Logger) *Server {
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = 3
	}
	s := &Server{
		store:    store,
		analyzer: analyzer,
		ingester: ingester,
		opts:     opts,
		logger:   logger,
	}

	r := gin.New()
	r.Use(requestID(), requestLogger(logger), gin.Recovery())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/health", s.health)
	api := r.Group("/api")
	{
		api.GET("/cities", s.listCities)
		api.GET("/jobs", s.listJobs)
		api.GET("/jobs/:id", s.getJob)
		api.POST("/ai/analyze", s.analyze)
		api.POST("/ingest/once", s.ingestOnce)
	}
	r.NoRoute(func(c *gin.Context) {
		abortError(c, http.StatusNotFound, "route not found")
	})

	s.engine = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", requestIDHeader}
	cfg.ExposeHeaders = []string{totalCountHeader, requestIDHeader}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
