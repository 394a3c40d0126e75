package terminal

import "time"

// CommandKind classifies an executed command.
type CommandKind string

const (
	KindBuiltin CommandKind = "builtin"
	KindProcess CommandKind = "process"
)

// Command outcome labels.
const (
	StatusOK         = "ok"
	StatusFailed     = "failed"
	StatusTerminated = "terminated"
	StatusSpawnError = "spawn_error"
)

// Observer is notified of engine activity. Implementations must be safe for
// concurrent use across sessions.
type Observer interface {
	CommandStarted(kind CommandKind)
	CommandFinished(kind CommandKind, status string, duration time.Duration)
	Preempted(escalated bool)
	OutputLine(origin Origin)
	DecodeFallback(charset string)
}

// NopObserver discards all notifications.
type NopObserver struct{}

func (NopObserver) CommandStarted(CommandKind)                         {}
func (NopObserver) CommandFinished(CommandKind, string, time.Duration) {}
func (NopObserver) Preempted(bool)                                     {}
func (NopObserver) OutputLine(Origin)                                  {}
func (NopObserver) DecodeFallback(string)                              {}
