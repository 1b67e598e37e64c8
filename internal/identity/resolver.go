// ABOUTME: Resolver tracks which identity is currently authenticated
// ABOUTME: Failed or cancelled logins leave the prior identity untouched

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrAuthenticationFailed indicates an interactive login that did not
// complete successfully.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Provider performs an interactive authentication flow against an
// external identity provider. Login blocks until the provider reports
// success or failure.
type Provider interface {
	Login(ctx context.Context) (*Identity, error)
}

// Resolver holds the currently authenticated identity, if any.
type Resolver struct {
	mu      sync.RWMutex
	current *Identity
	logger  *slog.Logger
}

// NewResolver creates a Resolver with no authenticated identity.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{
		logger: logger.With("component", "identity"),
	}
}

// Current returns the authenticated identity, or false if no login has
// completed (the anonymous case).
func (r *Resolver) Current() (*Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.current != nil
}

// Authenticate runs the provider's interactive flow. On success the new
// identity becomes current and is returned. On failure or cancellation
// the previous identity remains in effect.
func (r *Resolver) Authenticate(ctx context.Context, p Provider) (*Identity, error) {
	id, err := p.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	if id == nil {
		return nil, fmt.Errorf("%w: provider returned no identity", ErrAuthenticationFailed)
	}

	r.mu.Lock()
	r.current = id
	r.mu.Unlock()

	r.logger.Info("authenticated", "principal", id.Principal())
	return id, nil
}

// Clear drops the authenticated identity, reverting to anonymous.
func (r *Resolver) Clear() {
	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
}
