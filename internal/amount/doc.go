// ABOUTME: Amount is the arbitrary-precision non-negative quantity type for ledger units
// ABOUTME: All ledger values pass through the strict digit-only codec in this package

// Package amount implements parsing and formatting of ledger quantities.
package amount
