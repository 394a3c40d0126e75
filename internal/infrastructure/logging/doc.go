// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every terminal session logs through a named child logger that carries its
// session_id, so the lines of one connection can be followed across commands.
//
// Example Usage:
//
//	logger, err := logging.New(logging.FromConfig(cfg.Logging))
//	logger.Info("Server starting", zap.String("port", "8000"))
//	sessLog := logger.Session(sess.ID.String())
package logging
