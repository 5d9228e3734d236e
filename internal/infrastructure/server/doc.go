// Package server assembles an iconfind session from configuration.
//
// NewServer builds, in order:
//  1. Logger (production JSON or development console)
//  2. Prometheus registry and metrics
//  3. Tracer
//  4. The fixture API, when running in demo mode
//  5. REST and dictionary transports
//  6. Catalog services, category tree, navigation coordinator, detail panel
//     and blog services
//
// Run exposes /metrics and /health when METRICS_ADDR is set. Close tears the
// session down in reverse.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg, server.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	srv.Find.SetQuery("cat")
package server
