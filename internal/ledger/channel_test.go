// ABOUTME: Tests for the ledger channel against httptest stub servers
// ABOUTME: Covers bootstrap ordering, signed headers, result arms and transport faults

package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/hero-console/internal/amount"
	"github.com/2389/hero-console/internal/config"
	"github.com/2389/hero-console/internal/identity"
	"github.com/2389/hero-console/internal/principal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubLedger is a minimal in-memory ledger HTTP server for tests.
type stubLedger struct {
	mu          sync.Mutex
	requests    []string
	supply      string
	creator     string
	transferRes string // raw JSON body for /transfer
	mintRes     string // raw JSON body for /mint
	rootKey     string
	failAll     bool
	lastAuth    string
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		supply:      "100000000000000",
		creator:     "aaaaa-aa",
		transferRes: `{"ok":{}}`,
		mintRes:     `{"ok":{}}`,
		rootKey:     base64.StdEncoding.EncodeToString([]byte("test-root-key")),
	}
}

func (s *stubLedger) handler() http.Handler {
	mux := http.NewServeMux()
	record := func(name string, fn http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			s.requests = append(s.requests, name)
			s.lastAuth = r.Header.Get("Authorization")
			failing := s.failAll
			s.mu.Unlock()
			if failing {
				http.Error(w, "unavailable", http.StatusInternalServerError)
				return
			}
			fn(w, r)
		}
	}
	mux.HandleFunc("/api/v1/status", record("status", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		rootKey := s.rootKey
		s.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"initialized": true, "root_key": rootKey})
	}))
	mux.HandleFunc("/api/v1/metadata", record("metadata", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"metadata": map[string]any{"name": "Hero", "symbol": "HERO", "decimals": 8},
		})
	}))
	mux.HandleFunc("/api/v1/creator", record("creator", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		creator := s.creator
		s.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"creator": creator})
	}))
	mux.HandleFunc("/api/v1/supply", record("supply", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		supply := s.supply
		s.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"total_supply": supply})
	}))
	mux.HandleFunc("/api/v1/balance/", record("balance", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"balance": "250"})
	}))
	mux.HandleFunc("/api/v1/transfer", record("transfer", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		res := s.transferRes
		s.mu.Unlock()
		io.Copy(w, bytes.NewReader([]byte(res)))
	}))
	mux.HandleFunc("/api/v1/mint", record("mint", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		res := s.mintRes
		s.mu.Unlock()
		io.Copy(w, bytes.NewReader([]byte(res)))
	}))
	return mux
}

func (s *stubLedger) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// dialStub starts a stub server and dials it with bootstrap enabled.
func dialStub(t *testing.T, stub *stubLedger, id *identity.Identity) *Channel {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	ep := config.Endpoint{URL: srv.URL, Network: config.NetworkLocal, RequiresBootstrap: true}
	ch, err := Dial(context.Background(), ep, id, testLogger())
	require.NoError(t, err)
	return ch
}

func TestDial_BootstrapBeforeAnyCall(t *testing.T) {
	stub := newStubLedger()
	ch := dialStub(t, stub, nil)

	assert.Equal(t, []string{"status"}, stub.recorded(), "bootstrap must be the first and only call at dial time")
	assert.True(t, ch.Initialized())
	assert.Equal(t, principal.Anonymous, ch.Principal())
	assert.False(t, ch.Authenticated())
}

func TestDial_ProductionSkipsBootstrap(t *testing.T) {
	stub := newStubLedger()
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	ep := config.Endpoint{URL: srv.URL, Network: config.NetworkProduction}
	ch, err := Dial(context.Background(), ep, nil, testLogger())
	require.NoError(t, err)
	assert.Empty(t, stub.recorded(), "production dial must not hit the server")
	assert.True(t, ch.Initialized())
}

func TestDial_BootstrapFailure(t *testing.T) {
	stub := newStubLedger()
	stub.failAll = true
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	ep := config.Endpoint{URL: srv.URL, Network: config.NetworkLocal, RequiresBootstrap: true}
	_, err := Dial(context.Background(), ep, nil, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChannelUnavailable)
}

func TestDial_MalformedRootKey(t *testing.T) {
	stub := newStubLedger()
	stub.rootKey = "not base64!!!"
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	ep := config.Endpoint{URL: srv.URL, Network: config.NetworkLocal, RequiresBootstrap: true}
	_, err := Dial(context.Background(), ep, nil, testLogger())
	assert.ErrorIs(t, err, ErrChannelUnavailable)
}

func TestChannel_Reads(t *testing.T) {
	stub := newStubLedger()
	// Supply beyond 64-bit range must survive the trip.
	stub.supply = "340282366920938463463374607431768211455"
	ch := dialStub(t, stub, nil)
	ctx := context.Background()

	meta, err := ch.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, Metadata{Name: "Hero", Symbol: "HERO", Decimals: 8}, meta)

	creator, err := ch.Creator(ctx)
	require.NoError(t, err)
	assert.Equal(t, principal.Principal("aaaaa-aa"), creator)

	supply, err := ch.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, "340282366920938463463374607431768211455", supply.String())

	bal, err := ch.BalanceOf(ctx, principal.Principal("2vxsx-fae"))
	require.NoError(t, err)
	assert.Equal(t, "250", bal.String())
}

func TestChannel_MalformedCreatorIsTransportFault(t *testing.T) {
	stub := newStubLedger()
	stub.creator = "NOT A PRINCIPAL"
	ch := dialStub(t, stub, nil)

	_, err := ch.Creator(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestTransfer_OkArm(t *testing.T) {
	stub := newStubLedger()
	ch := dialStub(t, stub, nil)

	res, err := ch.Transfer(context.Background(), "aaaa-bb", amount.MustParse("100"))
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Empty(t, res.Reason)
}

func TestTransfer_ErrArmIsDataNotError(t *testing.T) {
	stub := newStubLedger()
	stub.transferRes = `{"err":"Insufficient balance"}`
	ch := dialStub(t, stub, nil)

	res, err := ch.Transfer(context.Background(), "aaaa-bb", amount.MustParse("100"))
	require.NoError(t, err, "a ledger rejection is not a transport error")
	assert.False(t, res.OK)
	assert.Equal(t, "Insufficient balance", res.Reason)
}

func TestTransfer_NeitherArmIsTransportFault(t *testing.T) {
	stub := newStubLedger()
	stub.transferRes = `{}`
	ch := dialStub(t, stub, nil)

	res, err := ch.Transfer(context.Background(), "aaaa-bb", amount.MustParse("100"))
	require.Error(t, err, "a result with neither arm must not read as success")
	assert.ErrorIs(t, err, ErrTransport)
	assert.False(t, res.OK)
}

func TestMint_RejectionSurfacesVerbatim(t *testing.T) {
	stub := newStubLedger()
	stub.mintRes = `{"err":"Only the creator can mint tokens"}`
	ch := dialStub(t, stub, nil)

	res, err := ch.Mint(context.Background(), "aaaa-bb", amount.MustParse("500"))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "Only the creator can mint tokens", res.Reason)
}

func TestChannel_ServerErrorIsTransportFault(t *testing.T) {
	stub := newStubLedger()
	ch := dialStub(t, stub, nil)
	stub.failAll = true

	_, err := ch.TotalSupply(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrChannelUnavailable)
}

func TestChannel_UnreachableServerIsTransportFault(t *testing.T) {
	stub := newStubLedger()
	srv := httptest.NewServer(stub.handler())

	ep := config.Endpoint{URL: srv.URL, Network: config.NetworkProduction}
	ch, err := Dial(context.Background(), ep, nil, testLogger())
	require.NoError(t, err)

	srv.Close()
	_, err = ch.TotalSupply(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestChannel_SignsAsBoundIdentity(t *testing.T) {
	stub := newStubLedger()
	id := identity.FromSeed(bytes.Repeat([]byte{21}, 32))
	ch := dialStub(t, stub, id)

	assert.Equal(t, id.Principal(), ch.Principal())
	assert.True(t, ch.Authenticated())

	_, err := ch.Transfer(context.Background(), "aaaa-bb", amount.MustParse("1"))
	require.NoError(t, err)

	stub.mu.Lock()
	auth := stub.lastAuth
	stub.mu.Unlock()
	require.NotEmpty(t, auth)

	const prefix = "Bearer "
	require.True(t, len(auth) > len(prefix) && auth[:len(prefix)] == prefix)

	token, err := jwt.ParseWithClaims(auth[len(prefix):], &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return id.PublicKey(), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(*jwt.RegisteredClaims)
	assert.Equal(t, id.Principal().String(), claims.Subject)
}

func TestChannel_AnonymousSendsNoAuthHeader(t *testing.T) {
	stub := newStubLedger()
	ch := dialStub(t, stub, nil)

	_, err := ch.TotalSupply(context.Background())
	require.NoError(t, err)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Empty(t, stub.lastAuth)
}
