// Package server assembles the command center: logging, metrics, tracing,
// middleware, the REST handlers and the terminal WebSocket, served by one
// http.Server with graceful shutdown.
//
// Routes:
//   - GET /             service banner
//   - GET /health       status and live counters
//   - GET /sessions     open terminal sessions
//   - GET /sessions/:id one session
//   - GET /metrics      Prometheus exposition
//   - GET /ws/terminal  terminal WebSocket (also /ws)
package server
