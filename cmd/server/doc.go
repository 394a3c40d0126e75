// Package main is the entry point for the command center server.
//
// The server gives each WebSocket client a persistent shell session: a
// working directory that survives between commands, a handful of builtins
// (cd, pwd, clear, mkdir) and at most one running process whose output is
// streamed line by line.
//
// Configuration, lowest precedence first:
//   - Built-in defaults
//   - TOML file (--config or CONFIG_FILE)
//   - Environment variables (PORT, TERMINAL_SHELL, LOG_LEVEL, ...)
//   - CLI flags
//
// Usage:
//
//	# Production mode
//	./server --port 8000 --dir /srv/work
//
//	# Development mode (colored logs, debug level)
//	./server --dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
