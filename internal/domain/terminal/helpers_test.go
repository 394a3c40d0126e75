package terminal

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingSink collects every event a session emits.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func (s *recordingSink) Outputs() []string {
	var out []string
	for _, ev := range s.Events() {
		out = append(out, ev.Output)
	}
	return out
}

func (s *recordingSink) Exits() []Event {
	var exits []Event
	for _, ev := range s.Events() {
		if ev.Kind == KindExit {
			exits = append(exits, ev)
		}
	}
	return exits
}

// countingRunner tracks how many spawned processes are alive at once.
type countingRunner struct {
	Runner

	live    atomic.Int32
	maxLive atomic.Int32

	mu    sync.Mutex
	procs []Process
}

func newCountingRunner() *countingRunner {
	return &countingRunner{Runner: NewShellRunner("")}
}

func (r *countingRunner) Spawn(ctx context.Context, command, dir string) (Process, error) {
	proc, err := r.Runner.Spawn(ctx, command, dir)
	if err != nil {
		return nil, err
	}

	n := r.live.Add(1)
	for {
		peak := r.maxLive.Load()
		if n <= peak || r.maxLive.CompareAndSwap(peak, n) {
			break
		}
	}

	p := &countedProcess{Process: proc, runner: r}
	r.mu.Lock()
	r.procs = append(r.procs, p)
	r.mu.Unlock()
	return p, nil
}

func (r *countingRunner) Processes() []Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Process(nil), r.procs...)
}

type countedProcess struct {
	Process
	runner *countingRunner
	once   sync.Once
}

func (p *countedProcess) Wait() (int, error) {
	code, err := p.Process.Wait()
	p.once.Do(func() { p.runner.live.Add(-1) })
	return code, err
}

// recordingObserver counts engine notifications.
type recordingObserver struct {
	NopObserver

	preempted  atomic.Int32
	escalated  atomic.Int32
	fallbacks  atomic.Int32
	finishedMu sync.Mutex
	finished   []string
}

func (o *recordingObserver) Preempted(escalated bool) {
	o.preempted.Add(1)
	if escalated {
		o.escalated.Add(1)
	}
}

func (o *recordingObserver) DecodeFallback(string) { o.fallbacks.Add(1) }

func (o *recordingObserver) CommandFinished(kind CommandKind, status string, _ time.Duration) {
	o.finishedMu.Lock()
	defer o.finishedMu.Unlock()
	o.finished = append(o.finished, string(kind)+":"+status)
}

func (o *recordingObserver) Finished() []string {
	o.finishedMu.Lock()
	defer o.finishedMu.Unlock()
	return append([]string(nil), o.finished...)
}

func newTestSession(t *testing.T, runner Runner, opts ...Option) (*Session, *recordingSink) {
	t.Helper()

	if runner == nil {
		runner = NewShellRunner("")
	}
	sink := &recordingSink{}
	sess, err := NewSession(Config{DefaultDir: t.TempDir(), PreemptTimeout: 2 * time.Second}, runner, sink, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess, sink
}

func waitIdle(t *testing.T, sess *Session) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, sess.Wait(ctx))
}

func indexOf(outputs []string, substr string) int {
	for i, o := range outputs {
		if strings.Contains(o, substr) {
			return i
		}
	}
	return -1
}
