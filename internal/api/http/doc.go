// Package http provides HTTP handlers for the kernel memory inspection API.
//
// This package implements the read-only endpoints debugger frontends use
// to observe emulated memory state, using the Gin framework.
//
// Endpoints:
//   - Health: /health
//   - Regions: /memory/regions
//   - Shared memory: /memory/shared
//   - Snapshot: /memory/snapshot
//   - Mappings: /processes/:pid/mappings
//
// Example Usage:
//
//	handlers := http.NewHandlers(kernel, logger)
//	router.GET("/health", handlers.Health)
//	router.GET("/memory/snapshot", handlers.Snapshot)
package http
