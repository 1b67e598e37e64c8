// ABOUTME: Local activity journal recording submitted transfers and mints
// ABOUTME: Convenience state for the console, never a source of ledger truth

// Package history persists a local journal of submitted ledger writes.
package history
