// Package httpapi exposes the decision engine over a small REST surface.
// All algorithmic work happens in the engine; handlers only translate.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stocksage/internal/engine"
	"stocksage/internal/logger"
	"stocksage/internal/risk"
	"stocksage/internal/signal"
	"stocksage/internal/store"
	"stocksage/internal/voting"
)

// ServerConfig wires the server's collaborators.
type ServerConfig struct {
	Addr     string
	Engine   *engine.Engine
	Store    *store.Store
	Registry *signal.Registry
	Voter    *voting.Engine
	Risk     *risk.Controller
}

type Server struct {
	addr   string
	router *gin.Engine
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Engine == nil || cfg.Registry == nil || cfg.Voter == nil || cfg.Risk == nil {
		return nil, errors.New("http server requires engine, registry, voter and risk controller")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{
		engine:   cfg.Engine,
		store:    cfg.Store,
		registry: cfg.Registry,
		voter:    cfg.Voter,
		risk:     cfg.Risk,
	}
	h.register(router.Group("/api"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("http server listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Infof("http %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Truncate(time.Millisecond))
	}
}
