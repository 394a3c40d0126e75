package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	apihttp "github.com/AshCena/web-command-center/internal/api/http"
	"github.com/AshCena/web-command-center/internal/api/middleware"
	"github.com/AshCena/web-command-center/internal/api/ws"
	"github.com/AshCena/web-command-center/internal/domain/terminal"
	"github.com/AshCena/web-command-center/internal/infrastructure/config"
	"github.com/AshCena/web-command-center/internal/infrastructure/logging"
	"github.com/AshCena/web-command-center/internal/infrastructure/monitoring"
	"github.com/AshCena/web-command-center/internal/infrastructure/tracing"
)

const serviceName = "web-command-center"

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	ws       *ws.Handler
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	registry *prometheus.Registry
	tracer   *tracing.Tracer
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger *logging.Logger
	runner terminal.Runner
}

// WithLogger replaces the logger built from the logging config
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRunner replaces the shell runner built from the terminal config
func WithRunner(runner terminal.Runner) Option {
	return func(o *options) { o.runner = runner }
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		l, err := logging.New(logging.FromConfig(cfg.Logging))
		if err != nil {
			return nil, err
		}
		logger = l
	}

	logger.Info("Initializing command center",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("shell", cfg.Terminal.Shell),
		zap.String("default_dir", cfg.Terminal.DefaultDir),
		zap.Duration("preempt_timeout", cfg.Terminal.PreemptTimeout.Duration),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	tracer := tracing.New(serviceName, logger.Logger)

	runner := o.runner
	if runner == nil {
		runner = terminal.NewShellRunner(cfg.Terminal.Shell)
	}

	corsCfg := middleware.CORSFromConfig(cfg.CORS)
	wsHandler := ws.NewHandler(ws.NewConfig(cfg, middleware.OriginChecker(corsCfg)), runner, logger, metrics, tracer)
	handlers := apihttp.NewHandlers(wsHandler, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(corsCfg))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitFromConfig(cfg.RateLimit)))
	}

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/sessions", handlers.ListSessions)
	router.GET("/sessions/:id", handlers.GetSession)
	router.GET("/metrics", gin.WrapH(monitoring.Handler(registry)))

	// WebSocket
	router.GET("/ws/terminal", wsHandler.HandleConnection)
	router.GET("/ws", wsHandler.HandleConnection)

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		ws:       wsHandler,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		registry: registry,
		tracer:   tracer,
		http: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	return s.Shutdown()
}

// Shutdown stops accepting connections, closes every terminal session and
// flushes telemetry.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down server...",
		zap.Int("sessions", s.ws.Count()),
	)

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout.Duration)
	defer cancel()

	httpErr := s.http.Shutdown(ctx)
	if httpErr != nil {
		s.logger.Error("HTTP shutdown incomplete", zap.Error(httpErr))
	}
	wsErr := s.ws.Shutdown(ctx)
	if wsErr != nil {
		s.logger.Error("Sessions did not close in time", zap.Error(wsErr))
	}

	s.tracer.Close()
	_ = s.logger.Sync()

	return errors.Join(httpErr, wsErr)
}
