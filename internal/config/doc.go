// ABOUTME: Configuration loading and endpoint resolution for hero-console
// ABOUTME: The ledger endpoint is resolved once at startup, never re-derived ad hoc

// Package config loads console configuration and resolves the ledger endpoint.
package config
