package ws

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/AshCena/web-command-center/internal/domain/terminal"
)

// Inbound message types
const (
	TypeExecute = "execute_command"
	TypePing    = "ping"
)

// Outbound message types
const (
	TypeOutput = "command_output"
	TypeExit   = "command_exit"
	TypeError  = "error"
	TypePong   = "pong"
)

// Request is one client frame. Type defaults to execute_command.
type Request struct {
	Type    string  `json:"type,omitempty"`
	Command *string `json:"command,omitempty"`
	// Cwd is accepted for compatibility; the session's own directory is used.
	Cwd string `json:"cwd,omitempty"`
}

// Response is one server frame.
type Response struct {
	Type      string `json:"type"`
	Stream    string `json:"stream,omitempty"`
	Output    string `json:"output"`
	Command   string `json:"command,omitempty"`
	Cwd       string `json:"cwd,omitempty"`
	ExitCode  *int   `json:"exit_code,omitempty"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

// MalformedRequestError describes a frame the server could not act on. Its
// message is sent to the client verbatim.
type MalformedRequestError struct {
	Reason string
	Err    error
}

func (e *MalformedRequestError) Error() string { return "Error: " + e.Reason }

func (e *MalformedRequestError) Unwrap() error { return e.Err }

const (
	errInvalidJSON   = "Invalid JSON message"
	errMissingFields = "Missing required fields in message"
	errTooLarge      = "Message too large"
)

// DecodeRequest parses and validates one inbound frame.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := sonic.Unmarshal(data, &req); err != nil {
		return Request{}, &MalformedRequestError{Reason: errInvalidJSON, Err: err}
	}

	if req.Type == "" {
		req.Type = TypeExecute
	}

	switch req.Type {
	case TypePing:
	case TypeExecute:
		if req.Command == nil {
			return Request{}, &MalformedRequestError{Reason: errMissingFields}
		}
	default:
		return Request{}, &MalformedRequestError{Reason: fmt.Sprintf("Unknown message type: %s", req.Type)}
	}
	return req, nil
}

// NewResponse maps a session event onto the wire format.
func NewResponse(ev terminal.Event, sessionID string) Response {
	resp := Response{
		Type:      TypeOutput,
		Stream:    string(ev.Origin),
		Output:    ev.Output,
		Command:   ev.Command,
		Cwd:       ev.Cwd,
		SessionID: sessionID,
		Timestamp: timestamp(ev.Timestamp),
	}
	if ev.Kind == terminal.KindExit {
		code := ev.ExitCode
		resp.Type = TypeExit
		resp.ExitCode = &code
	}
	return resp
}

func errorResponse(msg, sessionID string) Response {
	return Response{
		Type:      TypeError,
		Stream:    string(terminal.OriginError),
		Output:    msg,
		SessionID: sessionID,
		Timestamp: timestamp(time.Time{}),
	}
}

func pongResponse(sessionID string) Response {
	return Response{
		Type:      TypePong,
		SessionID: sessionID,
		Timestamp: timestamp(time.Time{}),
	}
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}
