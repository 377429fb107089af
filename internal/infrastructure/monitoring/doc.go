/*
Package monitoring provides Prometheus metrics for the server.

Each Metrics value owns a private registry. HTTP traffic is recorded by the
gin middleware; desktop sessions report activity records, policy denials,
open windows and live sessions; the WebSocket hub reports connections and
messages.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", monitoring.Handler(metrics))

	metrics.RecordPolicyDenial("allowFileDelete")
*/
package monitoring
