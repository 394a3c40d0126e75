/*
Package tracing provides lightweight request and command tracing.

# Overview

Spans carry a trace ID, their own ID and their parent's, are collected
through a buffered channel and written to the log by a single goroutine.
One span covers each HTTP request; the WebSocket handler opens a child span
for every command a session executes.

# Usage

	tracer := tracing.New("command-center", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "terminal.execute")
	span.SetTag("command", text)
	defer tracer.End(span)

# Trace Format

Traces use standard HTTP headers for propagation:
  - X-Trace-ID: Unique identifier for entire request flow
  - X-Span-ID: Identifier for current operation
*/
package tracing
