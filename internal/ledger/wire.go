// ABOUTME: Wire types for the ledger HTTP API
// ABOUTME: The raw ok/err result shape never leaks past this package

package ledger

import (
	"fmt"

	"github.com/2389/hero-console/internal/amount"
)

// Metadata describes the ledger's token as reported by the service.
// It is immutable per fetch; the client never computes it locally.
type Metadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// Result is the outcome of a mutating ledger call. A ledger-reported
// business-rule rejection (insufficient balance, unauthorized mint) is a
// normal outcome carried in Reason, never an error.
type Result struct {
	OK     bool
	Reason string
}

// statusResponse is the bootstrap/status payload. The root key is the
// trust root fetched on local test networks before any other call.
type statusResponse struct {
	Initialized bool   `json:"initialized"`
	RootKey     string `json:"root_key"`
}

// wireResult is the ledger's two-armed result convention for writes.
// Exactly one arm must be present; a body with neither is malformed.
type wireResult struct {
	OK  *struct{} `json:"ok,omitempty"`
	Err *string   `json:"err,omitempty"`
}

func (r wireResult) toResult() (Result, error) {
	switch {
	case r.Err != nil:
		return Result{Reason: *r.Err}, nil
	case r.OK != nil:
		return Result{OK: true}, nil
	default:
		return Result{}, fmt.Errorf("%w: malformed result: neither arm present", ErrTransport)
	}
}

type metadataResponse struct {
	Metadata Metadata `json:"metadata"`
}

type creatorResponse struct {
	Creator string `json:"creator"`
}

type supplyResponse struct {
	TotalSupply amount.Amount `json:"total_supply"`
}

type balanceResponse struct {
	Balance amount.Amount `json:"balance"`
}

type transferRequest struct {
	To     string        `json:"to"`
	Amount amount.Amount `json:"amount"`
}

type mintRequest struct {
	To     string        `json:"to"`
	Amount amount.Amount `json:"amount"`
}
