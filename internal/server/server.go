// Package server exposes the census over HTTP using gin.
//
// Routes:
//
//	GET  /healthz
//	POST /v1/summaries          body is the payload; ?format= or Content-Type picks the decoder
//	GET  /v1/summaries          recorded runs, newest first (?limit=N)
//	GET  /v1/summaries/:id      one recorded run (full ID or 8+ character prefix)
//	GET  /v1/stats              totals across recorded runs
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/harrison/catcensus/internal/history"
	"github.com/harrison/catcensus/internal/runner"
)

// DefaultMaxBodyBytes caps POST /v1/summaries request bodies.
const DefaultMaxBodyBytes int64 = 8 << 20

// Logger receives request and lifecycle messages.
type Logger interface {
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

// Config holds server settings.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	AllowOrigins    []string
}

// Server serves census summaries over HTTP.
type Server struct {
	cfg    Config
	runner *runner.Runner
	store  *history.Store
	logger Logger
	engine *gin.Engine
}

// New builds a Server. Recording of POSTed payloads is up to r; store backs
// the read-only history routes and may be nil, in which case they answer 503.
func New(cfg Config, r *runner.Runner, store *history.Store, logger Logger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		runner: r,
		store:  store,
		logger: logger,
	}
	s.engine = s.newRouter()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) newRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	if len(s.cfg.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Content-Type"},
		}))
	}

	router.GET("/healthz", s.health)

	v1 := router.Group("/v1")
	{
		v1.POST("/summaries", s.createSummary)
		v1.GET("/summaries", s.listSummaries)
		v1.GET("/summaries/:id", s.getSummary)
		v1.GET("/stats", s.stats)
	}

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if s.logger == nil {
			return
		}
		msg := fmt.Sprintf("%s %s %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
		switch status := c.Writer.Status(); {
		case status >= 500:
			s.logger.LogError(msg)
		case status >= 400:
			s.logger.LogWarn(msg)
		default:
			s.logger.LogInfo(msg)
		}
	}
}

// ListenAndServe serves on cfg.Addr until ctx is done, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.logger != nil {
		s.logger.LogInfo(fmt.Sprintf("Listening on http://%s", ln.Addr()))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if s.logger != nil {
			s.logger.LogInfo("Shutting down server...")
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
