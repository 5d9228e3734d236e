// Command iconfind is an interactive icon browser for the terminal.
//
// It drives the navigation coordinator from a small command language:
// searching, browsing the category tree, paging, icon detail with dictionary
// lookups, and signed-in blog writes.
//
// Configuration:
//   - Environment variables (API_BASE, API_TOKEN, LOG_LEVEL, ...)
//   - An optional YAML or TOML file (-config); environment wins
//   - CLI flags for the demo API, metrics address and log mode
//
// Usage:
//
//	# Against a running API
//	API_BASE=https://icons.example.com/api ./iconfind
//
//	# Self-contained, with the fixture API and a metrics endpoint
//	./iconfind -demo -metrics :9102
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
