// Package config provides environment-based configuration management.
//
// Configuration is loaded from environment variables with sensible
// defaults, covering the inspection server, logging, rate limiting, and
// the emulated physical memory layout. A YAML layout profile file can
// override the region split to model the guest's alternate memory modes.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	layout := cfg.Memory.Layout()
package config
