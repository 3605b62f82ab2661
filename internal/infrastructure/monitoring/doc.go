/*
Package monitoring provides Prometheus metrics for the kernel memory
subsystem and its inspection API.

# Metrics

  - kernel_memory_region_used_bytes{region}: allocated bytes per region
  - kernel_shared_memory_objects: live shared memory objects
  - kernel_shared_memory_created_total: objects created since boot
  - kernel_memory_ops_total{op,result}: map/unmap outcomes
  - kernel_http_requests_total, kernel_http_request_duration_seconds
  - kernel_uptime_seconds

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

Each collector carries its own registry so several kernel instances can
coexist in one process (tests in particular).
*/
package monitoring
