// Package server assembles the kernel memory system and its inspection
// API into a runnable HTTP server.
//
// NewServer wires configuration, logging, metrics, the kernel, the
// middleware stack, and the route table; Run starts serving.
package server
