// ABOUTME: Session store holding the active principal, channel and ledger cache
// ABOUTME: All sync operations against the remote ledger reconcile through this package

// Package session maintains the client's view of the remote ledger.
//
// The Store is the single mutable aggregate: the principal shown by the
// UI, the identity-bound channel, and the cached ledger facts. Reads go
// through Snapshot; every mutation goes through the operations on Store.
package session
