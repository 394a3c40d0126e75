package terminal

import "time"

// Origin tags where an output event came from.
type Origin string

const (
	OriginStdout Origin = "stdout"
	OriginStderr Origin = "stderr"
	OriginSystem Origin = "system"
	OriginError  Origin = "error"
)

// EventKind distinguishes streamed output from the final exit summary.
type EventKind string

const (
	KindOutput EventKind = "output"
	KindExit   EventKind = "exit"
)

// Event is the unit of data sent back to a client.
type Event struct {
	Kind      EventKind
	Origin    Origin
	Output    string
	Command   string
	Cwd       string
	ExitCode  int
	Timestamp time.Time
}

// Sink receives events produced by a session. Send is never called
// concurrently by a single session.
type Sink interface {
	Send(Event) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event) error

// Send calls f(ev).
func (f SinkFunc) Send(ev Event) error { return f(ev) }

// ANSI styling used for output that does not come from stdout.
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"

	// ClearScreen clears the client display and homes the cursor.
	ClearScreen = "\x1b[2J\x1b[H"
)

func red(s string) string    { return colorRed + s + colorReset }
func green(s string) string  { return colorGreen + s + colorReset }
func yellow(s string) string { return colorYellow + s + colorReset }
