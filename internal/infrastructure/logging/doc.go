// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Kernel components log structured fields (object id, guest address,
// object name) so emulation traces can be filtered per object.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("kernel booted", zap.Uint32("fcram_size", size))
//	logger.Error("cannot map shared memory", zap.Error(err))
package logging
