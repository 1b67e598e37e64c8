// ABOUTME: Channel builds and issues identity-signed calls to the ledger endpoint
// ABOUTME: Local test-network channels fetch the trust root before any other call

package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/2389/hero-console/internal/amount"
	"github.com/2389/hero-console/internal/config"
	"github.com/2389/hero-console/internal/identity"
	"github.com/2389/hero-console/internal/principal"
)

// Channel errors.
var (
	// ErrChannelUnavailable indicates the channel is absent or its
	// construction (including trust bootstrap) failed.
	ErrChannelUnavailable = errors.New("ledger channel unavailable")

	// ErrTransport indicates a network or protocol-level failure, as
	// opposed to a ledger-reported rejection. Retry is at the caller's
	// discretion; the channel performs none itself.
	ErrTransport = errors.New("ledger transport failure")
)

const requestTimeout = 30 * time.Second

// Channel is a communication handle to the remote ledger, bound to
// exactly one identity: the given one, or anonymous when id is nil.
// A Channel is immutable after Dial; switching identities means
// dialing a new one.
type Channel struct {
	baseURL     string
	httpClient  *http.Client
	id          *identity.Identity
	rootKey     []byte
	initialized bool
	logger      *slog.Logger
}

// Dial builds a channel to the endpoint bound to the given identity
// (nil means anonymous). For endpoints that require it, the trust root
// is fetched and verified here, before the channel is handed to any
// caller; a channel that has not completed bootstrap is never returned.
func Dial(ctx context.Context, ep config.Endpoint, id *identity.Identity, logger *slog.Logger) (*Channel, error) {
	if ep.URL == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", ErrChannelUnavailable)
	}

	c := &Channel{
		baseURL:     ep.URL,
		httpClient:  &http.Client{Timeout: requestTimeout},
		id:          id,
		initialized: true,
		logger:      logger.With("component", "ledger", "endpoint", ep.URL),
	}

	if ep.RequiresBootstrap {
		st, err := c.fetchStatus(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: trust bootstrap: %v", ErrChannelUnavailable, err)
		}
		rootKey, err := base64.StdEncoding.DecodeString(st.RootKey)
		if err != nil || len(rootKey) == 0 {
			return nil, fmt.Errorf("%w: malformed trust root", ErrChannelUnavailable)
		}
		c.rootKey = rootKey
		c.initialized = st.Initialized
		c.logger.Debug("trust root fetched", "initialized", st.Initialized)
	}

	return c, nil
}

// Principal returns the principal the channel signs calls as.
func (c *Channel) Principal() principal.Principal {
	if c.id == nil {
		return principal.Anonymous
	}
	return c.id.Principal()
}

// Authenticated reports whether the channel is bound to a non-anonymous identity.
func (c *Channel) Authenticated() bool {
	return c.id != nil
}

// Initialized reports whether the ledger confirmed it has been
// provisioned. Production channels skip bootstrap and report true.
func (c *Channel) Initialized() bool {
	return c.initialized
}

// Metadata fetches the token's display name, symbol and decimals.
func (c *Channel) Metadata(ctx context.Context) (Metadata, error) {
	var resp metadataResponse
	if err := c.get(ctx, "/api/v1/metadata", &resp); err != nil {
		return Metadata{}, err
	}
	return resp.Metadata, nil
}

// Creator fetches the distinguished principal authorized to mint.
func (c *Channel) Creator(ctx context.Context) (principal.Principal, error) {
	var resp creatorResponse
	if err := c.get(ctx, "/api/v1/creator", &resp); err != nil {
		return "", err
	}
	p, err := principal.FromText(resp.Creator)
	if err != nil {
		return "", fmt.Errorf("%w: ledger returned malformed creator: %v", ErrTransport, err)
	}
	return p, nil
}

// TotalSupply fetches the current total supply.
func (c *Channel) TotalSupply(ctx context.Context) (amount.Amount, error) {
	var resp supplyResponse
	if err := c.get(ctx, "/api/v1/supply", &resp); err != nil {
		return amount.Amount{}, err
	}
	return resp.TotalSupply, nil
}

// BalanceOf fetches the balance of an arbitrary principal.
func (c *Channel) BalanceOf(ctx context.Context, p principal.Principal) (amount.Amount, error) {
	var resp balanceResponse
	if err := c.get(ctx, "/api/v1/balance/"+url.PathEscape(p.String()), &resp); err != nil {
		return amount.Amount{}, err
	}
	return resp.Balance, nil
}

// Transfer moves amt from the channel's bound identity to the given
// principal. Ledger rejections come back inside Result, not as errors.
func (c *Channel) Transfer(ctx context.Context, to principal.Principal, amt amount.Amount) (Result, error) {
	var wire wireResult
	req := transferRequest{To: to.String(), Amount: amt}
	if err := c.post(ctx, "/api/v1/transfer", req, &wire); err != nil {
		return Result{}, err
	}
	return wire.toResult()
}

// Mint creates amt new units credited to the given principal. The ledger
// enforces creator-only authorization; the client performs no local check
// and surfaces the ledger's rejection verbatim.
func (c *Channel) Mint(ctx context.Context, to principal.Principal, amt amount.Amount) (Result, error) {
	var wire wireResult
	req := mintRequest{To: to.String(), Amount: amt}
	if err := c.post(ctx, "/api/v1/mint", req, &wire); err != nil {
		return Result{}, err
	}
	return wire.toResult()
}

func (c *Channel) fetchStatus(ctx context.Context) (statusResponse, error) {
	var resp statusResponse
	if err := c.get(ctx, "/api/v1/status", &resp); err != nil {
		return statusResponse{}, err
	}
	return resp, nil
}

func (c *Channel) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrTransport, err)
	}
	return c.do(req, out)
}

func (c *Channel) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Channel) do(req *http.Request, out any) error {
	req.Header.Set("X-Request-Id", uuid.New().String())
	if c.id != nil {
		token, err := c.id.BearerToken(time.Now())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrTransport, req.URL.Path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrTransport, err)
	}
	return nil
}
