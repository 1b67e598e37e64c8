// ABOUTME: Identity resolution for signing outgoing ledger calls
// ABOUTME: Pure identity plumbing with no knowledge of ledger semantics

// Package identity manages the cryptographic identities that sign ledger calls.
package identity
