package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/AshCena/web-command-center/internal/domain/terminal"
)

var errConnClosed = errors.New("connection closed")

// messageRecorder counts frames by direction and type.
type messageRecorder interface {
	RecordWSMessage(direction, msgType string)
}

// connSink serializes every frame written to one connection. gorilla allows
// a single concurrent writer; events arrive from the session's streaming
// goroutine and replies from the read loop.
type connSink struct {
	conn         *websocket.Conn
	sessionID    string
	writeTimeout time.Duration
	recorder     messageRecorder

	mu     sync.Mutex
	closed bool
}

func newConnSink(conn *websocket.Conn, sessionID string, writeTimeout time.Duration, recorder messageRecorder) *connSink {
	return &connSink{
		conn:         conn,
		sessionID:    sessionID,
		writeTimeout: writeTimeout,
		recorder:     recorder,
	}
}

// Send implements terminal.Sink.
func (s *connSink) Send(ev terminal.Event) error {
	return s.write(NewResponse(ev, s.sessionID))
}

func (s *connSink) sendError(msg string) error {
	return s.write(errorResponse(msg, s.sessionID))
}

func (s *connSink) sendPong() error {
	return s.write(pongResponse(s.sessionID))
}

func (s *connSink) write(resp Response) error {
	data, err := sonic.Marshal(resp)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errConnClosed
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	s.recorder.RecordWSMessage("out", resp.Type)
	return nil
}

// close sends a close frame and stops further writes. Only the first call
// has an effect.
func (s *connSink) close(code int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	msg := websocket.FormatCloseMessage(code, reason)
	return s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.writeTimeout))
}
