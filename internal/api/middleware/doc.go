// Package middleware provides the HTTP middleware stack of the backend.
//
//   - CORS: cross-origin access for the desktop page and dashboards
//   - RateLimit: per-IP token buckets with idle client eviction
//   - Auth / RequireRole: bearer token resolution and role gates
//   - Recovery: panics become 500 responses with a logged stack
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	admin := router.Group("/admin", middleware.Auth(authSvc), middleware.RequireRole(types.RoleAdmin))
package middleware
