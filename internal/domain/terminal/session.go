package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/AshCena/web-command-center/internal/shared/id"
)

// ExitCommand ends the session from the server side.
const ExitCommand = "exit"

// DefaultPreemptTimeout bounds how long a new command waits for the previous
// one to stop after it was asked to terminate.
const DefaultPreemptTimeout = 5 * time.Second

// Config holds per-session settings.
type Config struct {
	// DefaultDir is the initial working directory; the home directory when empty.
	DefaultDir     string
	PreemptTimeout time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver sets the activity observer
func WithObserver(observer Observer) Option {
	return func(s *Session) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithID overrides the generated session ID
func WithID(sessionID id.SessionID) Option {
	return func(s *Session) { s.ID = sessionID }
}

// Info is a point-in-time view of a session.
type Info struct {
	ID         string    `json:"id"`
	WorkingDir string    `json:"working_dir"`
	Busy       bool      `json:"busy"`
	Command    string    `json:"command,omitempty"`
	PID        int       `json:"pid,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// Session owns the shell state of one connection: the working directory and
// at most one running process. A new command always pre-empts the running
// one; commands are never queued.
type Session struct {
	ID        id.SessionID
	StartedAt time.Time

	runner         Runner
	builtins       *Builtins
	mux            *Multiplexer
	sink           Sink
	observer       Observer
	logger         *zap.Logger
	preemptTimeout time.Duration

	// execMu serializes Execute and Close.
	execMu sync.Mutex

	mu      sync.Mutex
	cwd     string
	current *run
	closed  bool
}

// run is one spawned command and its streaming goroutine.
type run struct {
	proc      Process
	command   string
	cwd       string
	started   time.Time
	done      chan struct{}
	preempted atomic.Bool

	mu    sync.Mutex
	muted bool
}

// forward runs fn unless the run was muted; once mute returns, fn is never
// running and never runs again.
func (r *run) forward(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.muted {
		fn()
	}
}

func (r *run) mute() {
	r.mu.Lock()
	r.muted = true
	r.mu.Unlock()
}

// NewSession creates an idle session in cfg.DefaultDir.
func NewSession(cfg Config, runner Runner, sink Sink, opts ...Option) (*Session, error) {
	dir, err := initialDir(cfg.DefaultDir)
	if err != nil {
		return nil, err
	}

	timeout := cfg.PreemptTimeout
	if timeout <= 0 {
		timeout = DefaultPreemptTimeout
	}

	s := &Session{
		ID:             id.NewSessionID(),
		StartedAt:      time.Now(),
		runner:         runner,
		builtins:       NewBuiltins(),
		sink:           sink,
		observer:       NopObserver{},
		logger:         zap.NewNop(),
		preemptTimeout: timeout,
		cwd:            dir,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux = NewMultiplexer(NewDecoder(), s.observer)
	return s, nil
}

func initialDir(dir string) (string, error) {
	if dir == "" {
		home, err := HomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = home
	}

	base, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve process directory: %w", err)
	}
	resolved, err := ResolvePath(dir, base)
	if err != nil {
		return "", fmt.Errorf("default directory %q: %w", dir, err)
	}
	if !isDir(resolved) {
		return "", fmt.Errorf("default directory %q is not a directory", resolved)
	}
	return resolved, nil
}

// WorkingDirectory returns the session's current directory.
func (s *Session) WorkingDirectory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cwd
}

// Busy reports whether a process is running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Info returns a snapshot of the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{
		ID:         s.ID.String(),
		WorkingDir: s.cwd,
		Busy:       s.current != nil,
		StartedAt:  s.StartedAt,
	}
	if s.current != nil {
		info.Command = s.current.command
		info.PID = s.current.proc.PID()
	}
	return info
}

// Greet sends the connection banner.
func (s *Session) Greet() {
	cwd := s.WorkingDirectory()
	s.emit(Event{
		Kind:   KindOutput,
		Origin: OriginSystem,
		Output: green("Connected to terminal server. Current directory: "+cwd) + "\n",
		Cwd:    cwd,
	})
}

// Execute runs one command. A running process is terminated first. Builtins
// complete before Execute returns; a spawned process streams its output from
// a background goroutine. Execute returns ErrExit for the exit command and a
// *SpawnError, already reported to the sink, when the shell cannot start.
func (s *Session) Execute(ctx context.Context, text string) error {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	if s.isClosed() {
		return ErrSessionClosed
	}

	command := strings.TrimSpace(text)
	if command == "" {
		return nil
	}

	s.preempt()

	if strings.EqualFold(command, ExitCommand) {
		return ErrExit
	}

	cwd := s.WorkingDirectory()
	if res, ok := s.builtins.Dispatch(command, cwd); ok {
		s.applyBuiltin(command, res)
		return nil
	}

	return s.spawn(ctx, command, cwd)
}

// Wait blocks until the running command, if any, has finished streaming.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r == nil {
		return nil
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close terminates any running process. Later commands fail with
// ErrSessionClosed. Close is idempotent.
func (s *Session) Close() error {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.preempt()
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) applyBuiltin(command string, res Result) {
	start := time.Now()
	s.observer.CommandStarted(KindBuiltin)

	cwd := s.WorkingDirectory()
	if res.Dir != "" {
		s.mu.Lock()
		s.cwd = res.Dir
		s.mu.Unlock()
		cwd = res.Dir
		s.logger.Debug("Changed directory", zap.String("cwd", cwd))
	}

	s.emit(Event{
		Kind:    KindOutput,
		Origin:  res.Origin,
		Output:  res.Output,
		Command: command,
		Cwd:     cwd,
	})

	status := StatusOK
	if res.Origin == OriginError {
		status = StatusFailed
	}
	s.observer.CommandFinished(KindBuiltin, status, time.Since(start))
}

func (s *Session) spawn(ctx context.Context, command, cwd string) error {
	start := time.Now()
	s.observer.CommandStarted(KindProcess)

	proc, err := s.runner.Spawn(ctx, command, cwd)
	if err != nil {
		s.logger.Warn("Failed to spawn command",
			zap.String("command", command),
			zap.String("cwd", cwd),
			zap.Error(err),
		)
		cause := err
		var spawnErr *SpawnError
		if errors.As(err, &spawnErr) {
			cause = spawnErr.Err
		}
		s.emit(Event{
			Kind:    KindOutput,
			Origin:  OriginError,
			Output:  red(fmt.Sprintf("Error executing command: %v", cause)) + "\n",
			Command: command,
			Cwd:     cwd,
		})
		s.observer.CommandFinished(KindProcess, StatusSpawnError, time.Since(start))
		return err
	}

	s.logger.Debug("Process started",
		zap.String("command", command),
		zap.Int("pid", proc.PID()),
	)

	r := &run{
		proc:    proc,
		command: command,
		cwd:     cwd,
		started: start,
		done:    make(chan struct{}),
	}
	s.mu.Lock()
	s.current = r
	s.mu.Unlock()

	go s.stream(r)
	return nil
}

func (s *Session) stream(r *run) {
	defer close(r.done)

	code, err := s.mux.Pump(r.proc, func(origin Origin, text string) {
		r.forward(func() {
			s.emit(Event{
				Kind:    KindOutput,
				Origin:  origin,
				Output:  text,
				Command: r.command,
				Cwd:     r.cwd,
			})
		})
	})
	if err != nil {
		s.logger.Debug("Process wait failed", zap.String("command", r.command), zap.Error(err))
	}

	r.forward(func() {
		s.emit(Event{
			Kind:     KindExit,
			Origin:   OriginSystem,
			Output:   fmt.Sprintf("\nProcess exited with code %d\n", code),
			Command:  r.command,
			Cwd:      r.cwd,
			ExitCode: code,
		})
	})

	s.mu.Lock()
	if s.current == r {
		s.current = nil
	}
	s.mu.Unlock()

	status := StatusOK
	switch {
	case r.preempted.Load():
		status = StatusTerminated
	case code != 0:
		status = StatusFailed
	}
	s.observer.CommandFinished(KindProcess, status, time.Since(r.started))
	s.logger.Debug("Process finished",
		zap.String("command", r.command),
		zap.Int("exit_code", code),
		zap.String("status", status),
	)
}

// preempt terminates the running process and waits for its stream to finish.
// A process that outlives the preempt timeout is killed and its remaining
// output is discarded.
func (s *Session) preempt() {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r == nil {
		return
	}

	r.preempted.Store(true)
	if err := r.proc.Terminate(); err != nil {
		s.logger.Debug("Terminate failed", zap.Int("pid", r.proc.PID()), zap.Error(err))
	}

	timer := time.NewTimer(s.preemptTimeout)
	defer timer.Stop()

	select {
	case <-r.done:
		s.observer.Preempted(false)
		return
	case <-timer.C:
	}

	s.logger.Warn("Process did not stop after termination, killing",
		zap.String("command", r.command),
		zap.Int("pid", r.proc.PID()),
		zap.Duration("timeout", s.preemptTimeout),
	)
	r.mute()
	if err := r.proc.Kill(); err != nil {
		s.logger.Debug("Kill failed", zap.Int("pid", r.proc.PID()), zap.Error(err))
	}

	s.mu.Lock()
	if s.current == r {
		s.current = nil
	}
	s.mu.Unlock()
	s.observer.Preempted(true)
}

func (s *Session) emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if err := s.sink.Send(ev); err != nil {
		s.logger.Debug("Failed to deliver event", zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
}
