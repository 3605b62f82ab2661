// Package middleware provides HTTP middleware for the inspection API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing for debugger frontends
//   - RateLimit: Per-IP token bucket rate limiting
//
// The inspection API is read-only, so CORS allows only GET and OPTIONS
// and carries no credentials.
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
