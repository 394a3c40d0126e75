package ws

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AshCena/web-command-center/internal/domain/terminal"
	"github.com/AshCena/web-command-center/internal/infrastructure/config"
	"github.com/AshCena/web-command-center/internal/infrastructure/logging"
	"github.com/AshCena/web-command-center/internal/infrastructure/monitoring"
	"github.com/AshCena/web-command-center/internal/infrastructure/tracing"
	"github.com/AshCena/web-command-center/internal/shared/id"
)

const (
	defaultWriteTimeout = 10 * time.Second

	// Frames above MaxMessageBytes get an error reply; frames this many times
	// larger are a protocol violation and end the connection.
	hardLimitFactor = 4
)

// Config holds WebSocket handler settings.
type Config struct {
	Terminal        terminal.Config
	MaxMessageBytes int64
	WriteTimeout    time.Duration
	CheckOrigin     func(*http.Request) bool
}

// NewConfig derives handler settings from the application config.
func NewConfig(cfg *config.Config, checkOrigin func(*http.Request) bool) Config {
	return Config{
		Terminal: terminal.Config{
			DefaultDir:     cfg.Terminal.DefaultDir,
			PreemptTimeout: cfg.Terminal.PreemptTimeout.Duration,
		},
		MaxMessageBytes: cfg.Terminal.MaxMessageBytes,
		WriteTimeout:    defaultWriteTimeout,
		CheckOrigin:     checkOrigin,
	}
}

// client is one live connection and its session.
type client struct {
	session *terminal.Session
	sink    *connSink
}

// Handler upgrades connections and runs one terminal session per connection.
type Handler struct {
	cfg      Config
	runner   terminal.Runner
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	upgrader websocket.Upgrader

	// ownsTracer is set when the tracer was created here and is closed by
	// Shutdown.
	ownsTracer bool

	clients sync.Map // id.SessionID -> *client
	active  sync.WaitGroup
}

// NewHandler creates a new WebSocket handler. Nil metrics or tracer get a
// private instance; a private tracer is closed by Shutdown.
func NewHandler(cfg Config, runner terminal.Runner, logger *logging.Logger, metrics *monitoring.Metrics, tracer *tracing.Tracer) *Handler {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = config.Default().Terminal.MaxMessageBytes
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics(prometheus.NewRegistry())
	}
	ownsTracer := tracer == nil
	if ownsTracer {
		tracer = tracing.New("ws", logger.Logger)
	}

	return &Handler{
		cfg:        cfg,
		runner:     runner,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		ownsTracer: ownsTracer,
		upgrader: websocket.Upgrader{
			CheckOrigin: cfg.CheckOrigin,
		},
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already replied with an HTTP error
		h.logger.Warn("WebSocket upgrade failed",
			zap.String("remote", c.ClientIP()),
			zap.Error(err),
		)
		return
	}
	defer conn.Close()

	h.active.Add(1)
	defer h.active.Done()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	conn.SetReadLimit(h.cfg.MaxMessageBytes * hardLimitFactor)

	sessionID := id.NewSessionID()
	logger := h.logger.Session(sessionID.String())
	sink := newConnSink(conn, sessionID.String(), h.cfg.WriteTimeout, h.metrics)

	sess, err := terminal.NewSession(h.cfg.Terminal, h.runner, sink,
		terminal.WithID(sessionID),
		terminal.WithLogger(logger),
		terminal.WithObserver(h.metrics),
	)
	if err != nil {
		logger.Error("Failed to create session", zap.Error(err))
		_ = sink.sendError("Error: " + err.Error())
		_ = sink.close(websocket.CloseInternalServerErr, "session unavailable")
		return
	}

	cl := &client{session: sess, sink: sink}
	h.clients.Store(sessionID, cl)
	h.metrics.SessionOpened()
	logger.Info("Session opened",
		zap.String("remote", c.ClientIP()),
		zap.String("cwd", sess.WorkingDirectory()),
	)

	defer func() {
		h.clients.Delete(sessionID)
		sess.Close()
		h.metrics.SessionClosed()
		logger.Info("Session closed", zap.Duration("duration", time.Since(sess.StartedAt)))
	}()

	sess.Greet()
	h.serve(c.Request.Context(), cl, logger)
}

// serve runs the read loop until the client disconnects or exits.
func (h *Handler) serve(ctx context.Context, cl *client, logger *zap.Logger) {
	for {
		_, data, err := cl.sink.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				logger.Warn("WebSocket read error", zap.Error(err))
			} else {
				logger.Debug("Client disconnected", zap.Error(err))
			}
			return
		}

		if int64(len(data)) > h.cfg.MaxMessageBytes {
			h.metrics.RecordWSMessage("in", "oversized")
			h.reply(cl, logger, (&MalformedRequestError{Reason: errTooLarge}).Error())
			continue
		}

		req, err := DecodeRequest(data)
		if err != nil {
			h.metrics.RecordWSMessage("in", "malformed")
			logger.Debug("Malformed request", zap.Error(err))
			h.reply(cl, logger, err.Error())
			continue
		}
		h.metrics.RecordWSMessage("in", req.Type)

		switch req.Type {
		case TypePing:
			if err := cl.sink.sendPong(); err != nil {
				logger.Debug("Failed to send pong", zap.Error(err))
			}
		case TypeExecute:
			if h.execute(ctx, cl, *req.Command, logger) {
				return
			}
		}
	}
}

// execute runs one command and reports whether the connection should end.
func (h *Handler) execute(ctx context.Context, cl *client, command string, logger *zap.Logger) bool {
	span, ctx := h.tracer.StartSpan(ctx, "terminal.execute")
	span.SetTag("session_id", cl.session.ID.String())
	span.SetTag("command_id", id.NewCommandID().String())
	span.SetTag("command", command)
	defer h.tracer.End(span)

	err := cl.session.Execute(ctx, command)
	switch {
	case err == nil:
		return false
	case errors.Is(err, terminal.ErrExit):
		logger.Info("Client requested exit")
		if err := cl.sink.close(websocket.CloseNormalClosure, "exit"); err != nil {
			logger.Debug("Failed to send close frame", zap.Error(err))
		}
		return true
	case errors.Is(err, terminal.ErrSessionClosed):
		span.SetError(err)
		return true
	default:
		// spawn failures were already reported to the client
		span.SetError(err)
		return false
	}
}

func (h *Handler) reply(cl *client, logger *zap.Logger, msg string) {
	if err := cl.sink.sendError(msg); err != nil {
		logger.Debug("Failed to send error", zap.Error(err))
	}
}

// Session returns the live session with the given ID.
func (h *Handler) Session(sessionID id.SessionID) (terminal.Info, bool) {
	value, ok := h.clients.Load(sessionID)
	if !ok {
		return terminal.Info{}, false
	}
	return value.(*client).session.Info(), true
}

// Sessions lists the live sessions, oldest first.
func (h *Handler) Sessions() []terminal.Info {
	var infos []terminal.Info
	h.clients.Range(func(_, value any) bool {
		infos = append(infos, value.(*client).session.Info())
		return true
	})
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})
	return infos
}

// Count returns the number of live sessions.
func (h *Handler) Count() int {
	n := 0
	h.clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Shutdown terminates every session, closes its connection and waits for the
// connection handlers to return or ctx to expire.
func (h *Handler) Shutdown(ctx context.Context) error {
	var g errgroup.Group
	h.clients.Range(func(_, value any) bool {
		cl := value.(*client)
		// a stubborn process holds its Close for the preempt timeout
		g.Go(func() error {
			cl.session.Close()
			_ = cl.sink.close(websocket.CloseGoingAway, "server shutting down")
			// unblock the read loop
			return cl.sink.conn.SetReadDeadline(time.Now())
		})
		return true
	})

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		h.active.Wait()
		if h.ownsTracer {
			h.tracer.Close()
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
