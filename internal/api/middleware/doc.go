// Package middleware provides HTTP middleware for the command center.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - OriginChecker: the same origin policy for WebSocket upgrades
//   - RateLimit: Per-IP token bucket rate limiting
//
// Rate Limiting:
//   - Per-IP tracking; limiters idle for a few minutes are dropped
//   - Token bucket algorithm
//   - Configurable RPS and burst capacity
//   - Global rate limiting option
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.CORSFromConfig(cfg.CORS)))
//	router.Use(middleware.RateLimit(middleware.RateLimitFromConfig(cfg.RateLimit)))
package middleware
