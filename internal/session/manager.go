// Package session owns the live Player for one client session.
//
// Every state transition goes through the Manager's mutex, so there is exactly
// one writer at a time. Collaborator I/O (store, ads, verification) happens
// outside the lock and never blocks a transition.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"

	"Stardust/internal/ads"
	"Stardust/internal/clock"
	"Stardust/internal/hold"
	"Stardust/internal/metrics"
	"Stardust/internal/model"
	"Stardust/internal/reconcile"
	"Stardust/internal/recorder"
	"Stardust/internal/reducer"
	"Stardust/internal/store"
)

var (
	// ErrExternal wraps every collaborator failure surfaced to callers.
	ErrExternal = errors.New("external failure")
	// ErrDeleting is returned once account deletion has started.
	ErrDeleting = errors.New("account deletion in progress")

	ErrNoOfflineIncome = fmt.Errorf("%w: no offline income to claim", reducer.ErrIneligible)
)

// MembershipVerifier answers whether a player has joined a task's channel.
type MembershipVerifier interface {
	VerifyChannelMembership(ctx context.Context, playerID string, task model.Task) (bool, error)
}

// Announcer is told about new withdrawals so an operator can pay them out.
type Announcer interface {
	AnnounceWithdrawal(ctx context.Context, p model.Player, w model.Withdrawal) error
}

// Deps are the collaborators a Manager calls. Store is required; the rest
// fall back to inert implementations.
type Deps struct {
	Store     store.Store
	Clock     clock.Clock
	Ads       ads.Provider
	Verifier  MembershipVerifier
	Journal   recorder.Recorder
	Announcer Announcer
}

// Options configure how a session is opened.
type Options struct {
	PlayerID    string
	DisplayName string
	MaxEnergy   float64
	Catalogs    model.Catalogs
	Rules       model.Rules
	// PersistDebounce coalesces bursts of significant actions into one save.
	PersistDebounce time.Duration
	// ManualHold disables the internal hold ticker; the owner calls HoldTick.
	ManualHold bool
}

// Notice is a short user-facing message about an asynchronous outcome.
type Notice struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}

const maxNotices = 20

// Manager serializes all mutations of one player.
type Manager struct {
	mu       sync.Mutex
	player   model.Player
	catalogs model.Catalogs
	rules    model.Rules
	paused   bool
	offline  float64
	notices  []Notice

	hold       hold.Session
	holdStop   chan struct{}
	manualHold bool

	deleting atomic.Bool
	storeMu  sync.Mutex // held across the deleting check and the store write
	persist  func(f func())

	store     store.Store
	clock     clock.Clock
	ads       ads.Provider
	verifier  MembershipVerifier
	journal   recorder.Recorder
	announcer Announcer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open loads (or creates) the player and reconciles it against the catalogs.
func Open(ctx context.Context, deps Deps, opts Options) (*Manager, error) {
	if deps.Store == nil {
		return nil, errors.New("session: store is required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.RealClock{}
	}
	if deps.Ads == nil {
		deps.Ads = ads.Instant{}
	}
	if deps.Journal == nil {
		deps.Journal = recorder.NewNoopRecorder()
	}
	if opts.PersistDebounce <= 0 {
		opts.PersistDebounce = 500 * time.Millisecond
	}

	snap, err := deps.Store.FetchPlayer(ctx, opts.PlayerID)
	if err != nil {
		metrics.ExternalFailures.WithLabelValues("store").Inc()
		return nil, fmt.Errorf("%w: fetch player: %v", ErrExternal, err)
	}
	res, err := reconcile.Load(snap, reconcile.Options{
		PlayerID:    opts.PlayerID,
		DisplayName: opts.DisplayName,
		MaxEnergy:   opts.MaxEnergy,
		Catalogs:    opts.Catalogs,
		Rules:       opts.Rules,
		Now:         deps.Clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	bg, cancel := context.WithCancel(context.Background())
	m := &Manager{
		player:     res.Player,
		catalogs:   opts.Catalogs,
		rules:      opts.Rules,
		offline:    res.OfflineIncome,
		manualHold: opts.ManualHold,
		persist:    debounce.New(opts.PersistDebounce),
		store:      deps.Store,
		clock:      deps.Clock,
		ads:        deps.Ads,
		verifier:   deps.Verifier,
		journal:    deps.Journal,
		announcer:  deps.Announcer,
		ctx:        bg,
		cancel:     cancel,
	}

	if res.Fresh {
		log.Printf("[INFO] new player %s created", res.Player.ID)
		if err := m.PersistNow(ctx, "initial"); err != nil {
			log.Printf("[ERROR] initial persist for %s failed: %v", res.Player.ID, err)
		}
	} else {
		log.Printf("[INFO] player %s loaded: balance=%.0f level=%d offline=%.2f",
			res.Player.ID, res.Player.Balance, res.Player.Level, res.OfflineIncome)
	}
	m.observe()
	return m, nil
}

// Player returns a deep copy of the current player.
func (m *Manager) Player() model.Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.player.Clone()
}

// Catalogs returns the resolved catalogs the session runs with.
func (m *Manager) Catalogs() model.Catalogs {
	return m.catalogs
}

// Rules returns the game parameters the session runs with.
func (m *Manager) Rules() model.Rules {
	return m.rules
}

func (m *Manager) env() reducer.Env {
	return reducer.Env{Catalogs: m.catalogs, Rules: m.rules, Now: m.clock.Now()}
}

// Dispatch applies a reducer action. On failure the player is unchanged.
func (m *Manager) Dispatch(a reducer.Action) (model.Player, error) {
	if m.deleting.Load() {
		return m.Player(), ErrDeleting
	}
	m.mu.Lock()
	before := m.player
	next, err := reducer.Apply(before, m.env(), a)
	if err != nil {
		m.mu.Unlock()
		m.rejected(a, err)
		return before.Clone(), err
	}
	m.player = next
	out := next.Clone()
	m.mu.Unlock()

	if next.IsBanned {
		m.ReleaseHold()
	}
	metrics.ActionsApplied.WithLabelValues(a.Name()).Inc()
	m.observe()
	if reducer.Significant(a) {
		m.afterSignificant(a, before, next)
		m.schedulePersist()
	}
	return out, nil
}

func (m *Manager) rejected(a reducer.Action, err error) {
	reason := "ineligible"
	switch {
	case errors.Is(err, reducer.ErrBanned):
		reason = "banned"
	case errors.Is(err, reducer.ErrNotFound):
		reason = "not_found"
		log.Printf("[WARN] %s: %v", a.Name(), err)
	}
	metrics.ActionsRejected.WithLabelValues(a.Name(), reason).Inc()
}

// afterSignificant writes the journal and fires announcements. It runs
// after the transition and never changes state.
func (m *Manager) afterSignificant(a reducer.Action, before, after model.Player) {
	now := m.clock.Now()
	evt := &recorder.ActionEvent{
		PlayerID:      after.ID,
		Action:        a.Name(),
		BalanceBefore: before.Balance,
		BalanceAfter:  after.Balance,
		StarsBefore:   before.Stars,
		StarsAfter:    after.Stars,
		Level:         after.Level,
		At:            now,
	}
	if err := m.journal.RecordAction(evt); err != nil {
		log.Printf("[WARN] journal %s: %v", a.Name(), err)
	}

	switch act := a.(type) {
	case reducer.InitiateWithdrawal:
		w := after.WithdrawalHistory[0]
		m.recordWithdrawal(after.ID, w, now)
		if m.announcer != nil {
			go func() {
				if err := m.announcer.AnnounceWithdrawal(m.ctx, after, w); err != nil {
					metrics.ExternalFailures.WithLabelValues("announcer").Inc()
					log.Printf("[ERROR] announce withdrawal %s: %v", w.ID, err)
				}
			}()
		}
	case reducer.SettleWithdrawal:
		for _, w := range after.WithdrawalHistory {
			if w.ID == act.WithdrawalID {
				m.recordWithdrawal(after.ID, w, now)
			}
		}
	}
}

func (m *Manager) recordWithdrawal(playerID string, w model.Withdrawal, now time.Time) {
	err := m.journal.RecordWithdrawal(&recorder.WithdrawalEvent{
		PlayerID:     playerID,
		WithdrawalID: w.ID,
		Amount:       w.Amount,
		Payout:       w.Payout,
		Address:      w.Address,
		Status:       string(w.Status),
		At:           now,
	})
	if err != nil {
		log.Printf("[WARN] journal withdrawal %s: %v", w.ID, err)
	}
}

func (m *Manager) observe() {
	m.mu.Lock()
	balance, energy := m.player.Balance, m.player.CurrentEnergy
	m.mu.Unlock()
	metrics.Balance.Set(balance)
	metrics.Energy.Set(energy)
}

func (m *Manager) notify(kind, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, Notice{At: m.clock.Now(), Kind: kind, Message: msg})
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

// DrainNotices returns and clears the pending notices.
func (m *Manager) DrainNotices() []Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.notices
	m.notices = nil
	return out
}

// SetPaused pauses or resumes the update loop.
func (m *Manager) SetPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = paused
}

// ApplyPush merges a delta from another writer using the field-level policy.
func (m *Manager) ApplyPush(d model.PlayerDelta) bool {
	m.mu.Lock()
	if d.PlayerID != m.player.ID {
		m.mu.Unlock()
		return false
	}
	m.player = reconcile.MergePush(m.player, d)
	banned := m.player.IsBanned
	m.mu.Unlock()

	metrics.PushesApplied.Inc()
	if banned {
		m.ReleaseHold()
	}
	return true
}

// Close stops background work and writes a final save.
func (m *Manager) Close(ctx context.Context) error {
	m.stopHold()
	m.cancel()
	m.wg.Wait()
	if m.deleting.Load() {
		return nil
	}
	return m.PersistNow(ctx, "close")
}
