// Package main is the entry point for the kernel memory inspection
// service.
//
// The binary boots an emulated guest-kernel memory subsystem (physical
// region allocators, process address spaces, shared-memory objects) and
// serves its state over a read-only HTTP API for debugger frontends.
//
// The server provides:
//   - REST endpoints for regions, shared-memory objects, and mappings
//   - A full-state snapshot endpoint
//   - Prometheus metrics
//   - Rate limiting and CORS for local frontends
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Optional YAML memory-layout profile (MEM_LAYOUT_FILE)
//
// Usage:
//
//	# Production mode
//	./server -port 8600
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
