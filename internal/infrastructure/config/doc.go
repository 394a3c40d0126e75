// Package config provides 12-factor configuration management for the web
// command center.
//
// Configuration starts from Default, is overlaid by an optional TOML file and
// then by environment variables. CLI flags can override all of them.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown timeout)
//   - Terminal: shell, initial directory, pre-emption timeout, frame size limit
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - CORS: allowed origins for HTTP and WebSocket upgrades
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	fmt.Printf("Server running on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT
//   - TERMINAL_SHELL, TERMINAL_DEFAULT_DIR, TERMINAL_PREEMPT_TIMEOUT, TERMINAL_MAX_MESSAGE_BYTES
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CORS_ORIGINS (comma separated)
//   - CONFIG_FILE
package config
