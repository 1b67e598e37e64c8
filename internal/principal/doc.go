// ABOUTME: Principal is the opaque textual account identifier used by the ledger
// ABOUTME: Includes the well-known anonymous constant and key-derived principals

// Package principal defines the identifier type for ledger accounts.
package principal
