// Package config provides 12-factor configuration management for iconfind.
//
// Configuration is resolved in three layers: built-in defaults, an optional
// YAML or TOML file, and environment variables. Later layers win.
//
// Configuration Sections:
//   - API: REST base URL, bearer token, timeout, debounce, circuit breaker
//   - Dictionary: word lookup service used by the icon detail panel
//   - Find: navigation coordinator tuning (all-icons grace delay)
//   - Logging: Log level and output format
//   - RateLimit, Retry: transport behaviour
//   - Metrics: Prometheus listen address
//
// Example Usage:
//
//	cfg, err := config.LoadFile("iconfind.yaml")
//	if err != nil {
//		cfg = config.LoadOrDefault()
//	}
//
// Environment Variables:
//   - API_BASE, API_TOKEN, API_TIMEOUT, API_DEBOUNCE, API_USER_AGENT, API_BREAKER
//   - DICTIONARY_BASE, DICTIONARY_KEY, ALL_ICONS_GRACE
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RETRY_MAX, RETRY_WAIT_MIN, RETRY_WAIT_MAX
//   - METRICS_ADDR
package config
