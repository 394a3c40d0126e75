package terminal

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// DefaultShell interprets command text when no shell is configured.
const DefaultShell = "/bin/sh"

// Process is a spawned child with independently readable output streams.
type Process interface {
	PID() int
	Stdout() io.ReadCloser
	Stderr() io.ReadCloser
	// Terminate asks the process group to exit. It is a no-op once the
	// process has exited and never escalates on its own.
	Terminate() error
	// Kill forcibly stops the process group and releases its output pipes.
	Kill() error
	// Wait blocks until the process exits. Safe to call concurrently with
	// stream reads and more than once.
	Wait() (int, error)
	Done() <-chan struct{}
}

// Runner spawns processes for command text.
type Runner interface {
	Spawn(ctx context.Context, command, dir string) (Process, error)
}

// ShellRunner runs command text through a system shell ("<shell> -c <text>"),
// so pipes, globs and redirection behave as in a local terminal. The text is
// not sanitized.
type ShellRunner struct {
	Shell string
	Env   []string
}

// NewShellRunner creates a runner for the given shell, DefaultShell when empty.
func NewShellRunner(shell string) *ShellRunner {
	if shell == "" {
		shell = DefaultShell
	}
	return &ShellRunner{Shell: shell}
}

// Spawn starts command in dir.
func (r *ShellRunner) Spawn(ctx context.Context, command, dir string) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SpawnError{Command: command, Dir: dir, Err: err}
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, &SpawnError{Command: command, Dir: dir, Err: err}
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, &SpawnError{Command: command, Dir: dir, Err: err}
	}

	cmd := exec.Command(r.Shell, "-c", command)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	setProcessGroup(cmd)

	startErr := cmd.Start()
	// the child holds its own copies of the write ends
	stdoutW.Close()
	stderrW.Close()
	if startErr != nil {
		stdoutR.Close()
		stderrR.Close()
		return nil, &SpawnError{Command: command, Dir: dir, Err: startErr}
	}

	p := &shellProcess{
		cmd:    cmd,
		stdout: &onceCloser{File: stdoutR},
		stderr: &onceCloser{File: stderrR},
		done:   make(chan struct{}),
	}
	go p.reap()
	return p, nil
}

type shellProcess struct {
	cmd    *exec.Cmd
	stdout *onceCloser
	stderr *onceCloser

	done     chan struct{}
	exitCode int
	waitErr  error
}

func (p *shellProcess) PID() int              { return p.cmd.Process.Pid }
func (p *shellProcess) Stdout() io.ReadCloser { return p.stdout }
func (p *shellProcess) Stderr() io.ReadCloser { return p.stderr }
func (p *shellProcess) Done() <-chan struct{} { return p.done }

// reap collects the exit status as soon as the child exits so it never
// lingers as a zombie.
func (p *shellProcess) reap() {
	err := p.cmd.Wait()

	p.exitCode = -1
	if p.cmd.ProcessState != nil {
		p.exitCode = p.cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		p.waitErr = err
	}
	close(p.done)
}

func (p *shellProcess) Wait() (int, error) {
	<-p.done
	return p.exitCode, p.waitErr
}

func (p *shellProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *shellProcess) Terminate() error {
	return p.signal(syscall.SIGTERM)
}

func (p *shellProcess) Kill() error {
	err := p.signal(syscall.SIGKILL)
	p.stdout.Close()
	p.stderr.Close()
	return err
}

func (p *shellProcess) signal(sig syscall.Signal) error {
	err := signalGroup(p, sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// onceCloser lets both the stream reader and Kill close a pipe.
type onceCloser struct {
	*os.File
	once sync.Once
	err  error
}

func (c *onceCloser) Close() error {
	c.once.Do(func() { c.err = c.File.Close() })
	return c.err
}
