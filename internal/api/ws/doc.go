// Package ws serves terminal sessions over WebSocket.
//
// Every accepted connection owns exactly one terminal.Session. The session
// starts in the configured default directory and is closed, terminating any
// running process, when the connection ends.
//
// Message Types (Client → Server):
//   - execute_command: {"type":"execute_command","command":"ls -la"}; type may be omitted
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - command_output: one line (or builtin result) with its stream
//   - command_exit: the exit code once a process has finished
//   - error: a frame that could not be processed; the connection stays open
//   - pong: reply to ping
//
// Sending "exit" closes the connection with a normal closure. A request's
// "cwd" field is ignored: the directory the session remembers always wins.
//
// Example Usage:
//
//	handler := ws.NewHandler(ws.NewConfig(cfg, checkOrigin), terminal.NewShellRunner(cfg.Terminal.Shell), logger, metrics, tracer)
//	router.GET("/ws/terminal", handler.HandleConnection)
package ws
