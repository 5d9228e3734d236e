/*
Package monitoring provides Prometheus metrics for the icon finder.

# Overview

Metrics are registered on an injected prometheus.Registerer so tests and
multiple clients in one process never collide on the default registry.
Every recording method is safe on a nil *Metrics.

# Metrics

  - iconfind_http_requests_total{resource,method,status}
  - iconfind_http_request_duration_seconds{resource,method}
  - iconfind_auth_aborts_total{resource,method}
  - iconfind_fetches_superseded_total{kind}
  - iconfind_stream_emits_total{stream}
  - iconfind_transitions_total{op,status}
  - iconfind_served_requests_total{method,path,status} (demo API only)

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	// Demo API
	router.Use(monitoring.Middleware(metrics))

	// Transitions
	timer := monitoring.NewTimer(metrics, "select_category")
	defer timer.Stop("ok")

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
*/
package monitoring
