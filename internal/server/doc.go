// Package server implements the HTTP server and HTTP handlers for
// Flash Drop. It wires together the HTTP routes, dependencies
// (share store, blob store), and provides lifecycle helpers used by
// tests and the production binary.
package server
