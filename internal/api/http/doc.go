// Package http provides the REST endpoints served next to the terminal
// WebSocket: a service banner, a health check with live counters and the
// list of open sessions.
package http
