// ABOUTME: Mutex-guarded session aggregate with ledger sync operations
// ABOUTME: Cache commits are atomic per refresh and stale results are discarded on identity switch

package session

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/2389/hero-console/internal/amount"
	"github.com/2389/hero-console/internal/config"
	"github.com/2389/hero-console/internal/identity"
	"github.com/2389/hero-console/internal/ledger"
	"github.com/2389/hero-console/internal/principal"
)

// Recorder receives the outcome of submitted ledger writes for the local
// activity journal. Recording is best-effort: failures are logged, never
// propagated into the operation result.
type Recorder interface {
	Record(ctx context.Context, op string, from, to principal.Principal, amt amount.Amount, res ledger.Result) error
}

// Store is the process-wide session state: the displayed principal, the
// identity-bound channel and the cached ledger facts. It is safe for
// concurrent use; the operations below are its only legal mutators.
type Store struct {
	mu sync.RWMutex

	channel *ledger.Channel
	// generation increments on every channel swap. Results computed
	// against an older generation are discarded instead of committed.
	generation uint64

	active      principal.Principal
	meta        ledger.Metadata
	creator     principal.Principal
	hasCreator  bool
	supply      amount.Amount
	initialized bool

	endpoint config.Endpoint
	recorder Recorder
	logger   *slog.Logger
}

// Snapshot is a read-only view of the session handed to presentation code.
type Snapshot struct {
	ActivePrincipal  principal.Principal
	SigningPrincipal principal.Principal
	Authenticated    bool
	Metadata         ledger.Metadata
	Creator          principal.Principal
	HasCreator       bool
	TotalSupply      amount.Amount
	Initialized      bool
}

// New creates a session bound to a fresh anonymous channel. Dial failure
// surfaces as ledger.ErrChannelUnavailable and no store is returned.
func New(ctx context.Context, ep config.Endpoint, logger *slog.Logger) (*Store, error) {
	log := logger.With("component", "session")

	ch, err := ledger.Dial(ctx, ep, nil, logger)
	if err != nil {
		return nil, err
	}

	return &Store{
		channel:     ch,
		active:      principal.Anonymous,
		initialized: ch.Initialized(),
		endpoint:    ep,
		logger:      log,
	}, nil
}

// SetRecorder attaches the activity journal. Passing nil disables recording.
func (s *Store) SetRecorder(r Recorder) {
	s.mu.Lock()
	s.recorder = r
	s.mu.Unlock()
}

// Snapshot returns a consistent read-only view of the session.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ActivePrincipal: s.active,
		Metadata:        s.meta,
		Creator:         s.creator,
		HasCreator:      s.hasCreator,
		TotalSupply:     s.supply,
		Initialized:     s.initialized,
	}
	if s.channel != nil {
		snap.SigningPrincipal = s.channel.Principal()
		snap.Authenticated = s.channel.Authenticated()
	} else {
		snap.SigningPrincipal = principal.Anonymous
	}
	return snap
}

// RefreshAll fetches metadata, creator and total supply in parallel and
// commits all three as one atomic cache update. If any fetch fails the
// cache is left exactly as it was.
func (s *Store) RefreshAll(ctx context.Context) error {
	ch, gen, err := s.channelRef()
	if err != nil {
		return err
	}

	var (
		meta    ledger.Metadata
		creator principal.Principal
		supply  amount.Amount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meta, err = ch.Metadata(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		creator, err = ch.Creator(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		supply, err = ch.TotalSupply(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.logger.Debug("discarding stale refresh", "generation", gen)
		return nil
	}
	s.meta = meta
	s.creator = creator
	s.hasCreator = true
	s.supply = supply
	s.initialized = true
	return nil
}

// RefreshSupply fetches the total supply only and replaces the cached
// value. The supply is always re-fetched, never incremented locally.
func (s *Store) RefreshSupply(ctx context.Context) error {
	ch, gen, err := s.channelRef()
	if err != nil {
		return err
	}
	return s.refreshSupplyFrom(ctx, ch, gen)
}

// Balance fetches the point-in-time balance of an arbitrary principal.
// It never touches the session cache: balances may be queried for
// principals other than the active one and go stale immediately.
func (s *Store) Balance(ctx context.Context, text string) (amount.Amount, error) {
	p, err := principal.FromText(text)
	if err != nil {
		return amount.Amount{}, err
	}
	ch, _, err := s.channelRef()
	if err != nil {
		return amount.Amount{}, err
	}
	return ch.BalanceOf(ctx, p)
}

// SubmitTransfer issues a transfer signed by the channel's bound identity.
// A ledger rejection is returned inside Result with the reason verbatim
// and no supply refresh. On success the supply is re-fetched before the
// operation returns.
func (s *Store) SubmitTransfer(ctx context.Context, to string, amt amount.Amount) (ledger.Result, error) {
	return s.submit(ctx, "transfer", to, amt)
}

// SubmitMint issues a mint. The ledger enforces creator-only
// authorization; no local check is performed and a rejection surfaces
// verbatim in the Result.
func (s *Store) SubmitMint(ctx context.Context, to string, amt amount.Amount) (ledger.Result, error) {
	return s.submit(ctx, "mint", to, amt)
}

func (s *Store) submit(ctx context.Context, op string, to string, amt amount.Amount) (ledger.Result, error) {
	toPrincipal, err := principal.FromText(to)
	if err != nil {
		return ledger.Result{}, err
	}
	ch, gen, err := s.channelRef()
	if err != nil {
		return ledger.Result{}, err
	}

	var res ledger.Result
	switch op {
	case "transfer":
		res, err = ch.Transfer(ctx, toPrincipal, amt)
	case "mint":
		res, err = ch.Mint(ctx, toPrincipal, amt)
	}
	if err != nil {
		return ledger.Result{}, err
	}

	s.record(ctx, op, ch.Principal(), toPrincipal, amt, res)

	if res.OK {
		if err := s.refreshSupplyFrom(ctx, ch, gen); err != nil {
			// The write itself succeeded; a failed follow-up refresh
			// leaves the cache stale, not wrong.
			s.logger.Warn("supply refresh after "+op+" failed", "error", err)
		}
	}
	return res, nil
}

// SwitchIdentity rebuilds the channel for the given identity (nil means
// anonymous) and makes its principal active. The new channel is dialed
// first; if that fails the previous channel and active principal remain
// in effect. Operations still in flight against the old channel resolve
// against a stale generation and their cache commits are discarded.
func (s *Store) SwitchIdentity(ctx context.Context, id *identity.Identity) error {
	ch, err := ledger.Dial(ctx, s.endpoint, id, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.channel = ch
	s.generation++
	s.active = ch.Principal()
	if ch.Initialized() {
		s.initialized = true
	}
	s.mu.Unlock()

	s.logger.Info("identity switched", "principal", ch.Principal(), "authenticated", ch.Authenticated())

	if err := s.RefreshAll(ctx); err != nil {
		s.logger.Warn("refresh after identity switch failed", "error", err)
	}
	return nil
}

// Logout substitutes a wholly fresh anonymous channel for the current
// one, guaranteeing no authenticated channel survives.
func (s *Store) Logout(ctx context.Context) error {
	return s.SwitchIdentity(ctx, nil)
}

// SetDisplayedPrincipal changes the principal shown by the UI without
// touching the signing identity or the channel. Subsequent writes still
// sign as the channel's bound identity, not the displayed one.
func (s *Store) SetDisplayedPrincipal(text string) error {
	p, err := principal.FromText(text)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.active = p
	s.mu.Unlock()
	return nil
}

func (s *Store) channelRef() (*ledger.Channel, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.channel == nil {
		return nil, 0, ledger.ErrChannelUnavailable
	}
	return s.channel, s.generation, nil
}

func (s *Store) refreshSupplyFrom(ctx context.Context, ch *ledger.Channel, gen uint64) error {
	supply, err := ch.TotalSupply(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.logger.Debug("discarding stale supply refresh", "generation", gen)
		return nil
	}
	s.supply = supply
	return nil
}

func (s *Store) record(ctx context.Context, op string, from, to principal.Principal, amt amount.Amount, res ledger.Result) {
	s.mu.RLock()
	rec := s.recorder
	s.mu.RUnlock()
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, op, from, to, amt, res); err != nil {
		s.logger.Warn("recording "+op+" failed", "error", err)
	}
}
