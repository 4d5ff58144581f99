package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/agntcy/identity-service/pkg/gate"
	"github.com/agntcy/identity-service/pkg/identity"
)

const (
	// DefaultShutdownTimeout bounds graceful drain on shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultReadTimeout applies when ServerConfig.ReadTimeout is zero.
	DefaultReadTimeout = 10 * time.Second
)

// ServerConfig describes one gateway instance.
type ServerConfig struct {
	// ListenAddr is the address the gateway binds, e.g. ":8080".
	ListenAddr string

	// TargetURL is the upstream agentic service.
	TargetURL string

	// ReadTimeout bounds reading each request header. Zero means
	// DefaultReadTimeout.
	ReadTimeout time.Duration

	Logger *zap.Logger
}

// Server is a gated reverse proxy with its own health endpoint. The health
// endpoint answers locally; everything else goes through the gate and on to
// the upstream.
type Server struct {
	cfg    ServerConfig
	router chi.Router
	logger *zap.Logger
}

// NewServer wires the proxy behind g on a chi router.
func NewServer(g *gate.Gate, cfg ServerConfig) (*Server, error) {
	if g == nil {
		return nil, identity.NewError(identity.ErrCodeConfig, "a gate is required")
	}
	if cfg.ListenAddr == "" {
		return nil, identity.NewError(identity.ErrCodeConfig, "a listen address is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	proxy, err := NewProxy(cfg.TargetURL, logger)
	if err != nil {
		return nil, identity.WrapError(identity.ErrCodeConfig, err, "invalid upstream")
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/*", g.Middleware(proxy))

	return &Server{cfg: cfg, router: r, logger: logger}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) readHeaderTimeout() time.Duration {
	if s.cfg.ReadTimeout > 0 {
		return s.cfg.ReadTimeout
	}
	return DefaultReadTimeout
}

// Run serves until ctx is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: s.readHeaderTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening",
			zap.String("addr", s.cfg.ListenAddr),
			zap.String("upstream", s.cfg.TargetURL),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("gateway shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
