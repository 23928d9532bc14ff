package api

import (
	"context"
	"net/http"
	"time"

	"github.com/markuskkkl/dav-pimcore/config"
	"github.com/markuskkkl/dav-pimcore/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Server publishes the latest report over HTTP in serve mode
type Server struct {
	config     config.ServerConfig
	router     *gin.Engine
	httpServer *http.Server
	store      *report.Store
}

// NewServer creates a new HTTP server over the report store
func NewServer(cfg config.ServerConfig, store *report.Store) *Server {
	server := &Server{
		config: cfg,
		store:  store,
	}

	router := server.setupRouter()
	server.router = router

	httpServer := &http.Server{
		Addr:    cfg.Address,
		Handler: router,
	}
	server.httpServer = httpServer

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	router := gin.Default()

	// Recovery middleware
	router.Use(gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		rendered := s.store.HTML()
		if rendered == nil {
			c.String(http.StatusServiceUnavailable, "no report generated yet")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", rendered)
	})

	router.GET("/api/records", func(c *gin.Context) {
		result := s.store.Latest()
		if result == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no report generated yet"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.Address).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
