// Package server exposes a service.Service over HTTP for CLI invocations
// and other local clients
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/julianstephens/chime/internal/constants"
	"github.com/julianstephens/chime/internal/logger"
	"github.com/julianstephens/chime/internal/service"
)

// Options configures a Server
type Options struct {
	// Secret, when set, must be sent in the SecretHeader of every /api request
	Secret       string
	AllowOrigins []string
}

// Server routes HTTP requests to a service
type Server struct {
	svc    service.Service
	opts   Options
	engine *gin.Engine
}

func New(svc service.Service, opts Options) *Server {
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"http://localhost", "http://127.0.0.1"}
	}

	s := &Server{svc: svc, opts: opts}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  opts.AllowOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Accept", "Origin", constants.SecretHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/health", s.health)

	api := r.Group("/api", s.requireSecret)
	{
		api.GET("/schedules", s.listSchedules)
		api.POST("/schedules", s.createSchedule)
		api.PATCH("/schedules/:id", s.updateSchedule)
		api.DELETE("/schedules/:id", s.deleteSchedule)
		api.PUT("/schedules/:id/enabled", s.toggleSchedule)

		api.POST("/audio/play", s.playAudio)
		api.POST("/audio/stop", s.stopAudio)
		if reporter, ok := svc.(service.StatusReporter); ok {
			api.GET("/audio/status", func(c *gin.Context) {
				status, err := reporter.AudioStatus(c.Request.Context())
				if err != nil {
					respondError(c, err)
					return
				}
				c.JSON(http.StatusOK, status)
			})
		}

		api.GET("/settings", s.getSettings)
		api.PATCH("/settings", s.updateSettings)
		api.PUT("/settings/launch-at-login", s.setLaunchAtLogin)
	}

	s.engine = r
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: constants.RequestTimeoutSeconds * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	logger.Info("Daemon listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down daemon")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeoutSeconds*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		keyvals := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", keyvals...)
			return
		}
		logger.Debug("Request", keyvals...)
	}
}

func (s *Server) requireSecret(c *gin.Context) {
	if s.opts.Secret == "" {
		return
	}
	got := c.GetHeader(constants.SecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.Secret)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing secret"})
	}
}

// respondError maps service errors onto status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": constants.Version})
}
