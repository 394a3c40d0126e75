// Package terminal implements the session execution engine behind the web
// command center.
//
// A Session holds the shell state of one client connection: its working
// directory and at most one running child process. Commands are either
// interpreted directly (cd, pwd, clear, mkdir, and a refusal for full-screen
// programs) or handed to a system shell, whose stdout and stderr are streamed
// back line by line while the process runs.
//
// Architecture:
//   - ResolvePath: "~", relative and absolute paths against the session cwd
//   - Builtins: commands that read or change session state
//   - Runner / Process: "<shell> -c <command>" in its own process group
//   - Multiplexer: one reader goroutine per stream, single forwarding loop
//   - Session: pre-emption, state transitions, event emission
//
// States:
//
//	Idle --spawn--> Busy --exit/terminate--> Idle
//
// A command arriving while Busy terminates the running process and waits for
// its output to finish before it runs. There is no queue.
//
// Example Usage:
//
//	sess, err := terminal.NewSession(terminal.Config{}, terminal.NewShellRunner(""), sink)
//	sess.Greet()
//	err = sess.Execute(ctx, "ls -la")
//	defer sess.Close()
//
// Command text is passed to the shell verbatim. The engine assumes the client
// is a trusted operator of the host; anything else needs an authorization
// layer in front of it.
package terminal
