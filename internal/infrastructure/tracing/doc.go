// Package tracing correlates log lines of one HTTP request.
//
// Every request gets an id, taken from the X-Request-ID header when the
// caller sends a printable one and minted as a prefixed ULID otherwise.
// The id travels in the request context and is echoed in the response.
package tracing
