// Package server exposes the device bridge over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"devbridge/internal/app"
	"devbridge/internal/bridge"
	"devbridge/internal/config"
)

// BridgeFactory builds a bridge for a config.
type BridgeFactory func(ctx context.Context, cfg config.Config) (*bridge.Bridge, error)

type Option func(*Server)

// WithConfigPath enables hot reload of the file at p during Start.
func WithConfigPath(p string) Option { return func(s *Server) { s.configPath = p } }

func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithConfigOverlay applies fn to every config the watcher reloads, so
// command line overrides survive edits of the file.
func WithConfigOverlay(fn func(*config.Config)) Option {
	return func(s *Server) { s.overlay = fn }
}

// WithBridgeFactory replaces app.NewBridge.
func WithBridgeFactory(f BridgeFactory) Option { return func(s *Server) { s.factory = f } }

// Server serves the bridge operations. The current bridge is swapped
// atomically on reload; requests already running keep the bridge they
// started with.
type Server struct {
	configPath string
	logger     *log.Logger
	factory    BridgeFactory
	overlay    func(*config.Config)

	cfg    atomic.Pointer[config.Config]
	bridge atomic.Pointer[bridge.Bridge]
	// bridgeErr is why bridge is nil.
	errMu     sync.RWMutex
	bridgeErr error

	// base outlives requests; recordings run under it.
	base context.Context
	recs *registry
}

func New(cfg config.Config, opts ...Option) *Server {
	s := &Server{base: context.Background(), recs: newRegistry()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.factory == nil {
		logger := s.logger
		s.factory = func(ctx context.Context, cfg config.Config) (*bridge.Bridge, error) {
			return app.NewBridge(ctx, cfg, logger)
		}
	}
	s.cfg.Store(&cfg)
	return s
}

// Reload rebuilds the bridge for cfg. On failure the server keeps no
// bridge and device routes answer with the construction error.
func (s *Server) Reload(ctx context.Context, cfg config.Config) error {
	b, err := s.factory(ctx, cfg)
	s.cfg.Store(&cfg)
	s.bridge.Store(b)
	s.errMu.Lock()
	s.bridgeErr = err
	s.errMu.Unlock()
	if err != nil {
		s.logger.Warn("no device bridge", "err", err)
		return err
	}
	s.logger.Info("bridge ready", "family", b.Family(), "tool", b.ToolPath())
	return nil
}

// configChanged handles one reload from the config watcher.
func (s *Server) configChanged(ctx context.Context, cfg config.Config, err error) {
	if err != nil {
		s.logger.Warn("config reload failed", "path", s.configPath, "err", err)
		return
	}
	if s.overlay != nil {
		s.overlay(&cfg)
	}
	s.logger.Info("config changed, rebuilding bridge", "path", s.configPath)
	_ = s.Reload(ctx, cfg)
}

// current returns the active bridge or the reason there is none.
func (s *Server) current() (*bridge.Bridge, error) {
	if b := s.bridge.Load(); b != nil {
		return b, nil
	}
	s.errMu.RLock()
	defer s.errMu.RUnlock()
	if s.bridgeErr != nil {
		return nil, s.bridgeErr
	}
	return nil, bridge.ErrNoToolchainAvailable
}

// Handler returns the gin engine with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	s.mountAPI(r)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

// Start serves on addr until ctx is done, then stops active recordings.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.base = ctx
	_ = s.Reload(ctx, *s.cfg.Load())

	if s.configPath != "" {
		go func() {
			err := config.Watch(ctx, s.configPath, func(cfg config.Config, err error) {
				s.configChanged(ctx, cfg, err)
			})
			if err != nil {
				s.logger.Warn("config watch stopped", "err", err)
			}
		}()
	}

	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	s.logger.Info("devbridge server listening", "addr", addr)
	err := srv.ListenAndServe()
	s.recs.stopAll(s.logger)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
