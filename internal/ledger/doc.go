// ABOUTME: Identity-bound channel for calling the remote Hero ledger service
// ABOUTME: Converts the wire's two-armed ok/err result shape into the local Result contract

// Package ledger implements the client channel to the remote ledger service.
package ledger
