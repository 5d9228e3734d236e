// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Output defaults to stderr; stdout belongs to the CLI's result listing.
//
// Leveled adapts a zap logger to the LeveledLogger interface that
// go-retryablehttp accepts, so transport retries land in the same log stream.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("coordinator ready", zap.String("api", cfg.API.Base))
//	logger.Error("icon fetch failed", zap.Error(err))
package logging
