/*
Package monitoring provides metrics collection for the command center.

# Overview

Metrics are Prometheus collectors registered on an injectable registry. They
cover HTTP requests, WebSocket connections and messages, terminal sessions and
the commands they run. Metrics implements terminal.Observer, so sessions
report command activity without knowing about Prometheus.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(monitoring.Handler(reg)))

	sess, err := terminal.NewSession(cfg, runner, sink, terminal.WithObserver(metrics))
*/
package monitoring
