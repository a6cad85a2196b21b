package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"Stardust/internal/ads"
	"Stardust/internal/clock"
	"Stardust/internal/hold"
	"Stardust/internal/model"
	"Stardust/internal/reducer"
)

var t0 = time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)

type memStore struct {
	mu       sync.Mutex
	rows     map[string]model.PlayerSnapshot
	persists int
	failWith error

	// When set, PersistPlayer signals entered and waits on release.
	entered chan struct{}
	release chan struct{}
}

func newMemStore() *memStore { return &memStore{rows: map[string]model.PlayerSnapshot{}} }

func (s *memStore) FetchPlayer(_ context.Context, id string) (*model.PlayerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (s *memStore) PersistPlayer(_ context.Context, snap model.PlayerSnapshot) error {
	s.mu.Lock()
	entered, release := s.entered, s.release
	s.mu.Unlock()
	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if release != nil {
		<-release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.persists++
	s.rows[snap.ID] = snap
	return nil
}

func (s *memStore) DeletePlayer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *memStore) ApplyDelta(context.Context, model.PlayerDelta) error { return nil }
func (s *memStore) Leaderboard(context.Context, int) ([]model.LeaderboardEntry, error) {
	return nil, nil
}
func (s *memStore) RankFor(context.Context, float64) (int, error) { return 1, nil }
func (s *memStore) Close() error                                  { return nil }

func (s *memStore) row(id string) (model.PlayerSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.rows[id]
	return snap, ok
}

type stubVerifier struct {
	joined bool
	err    error
}

func (v stubVerifier) VerifyChannelMembership(context.Context, string, model.Task) (bool, error) {
	return v.joined, v.err
}

func testCatalogs() model.Catalogs {
	return model.Catalogs{
		Deals: []model.Deal{
			{ID: "refill", CostKind: model.DealCostAd, RewardKind: model.RewardEnergyBoost, RewardValue: 500},
		},
		Tasks: []model.Task{
			{ID: "tg", Kind: model.TaskTelegram, Reward: 5000},
		},
		DailyRewards: []model.DailyReward{{Kind: model.DailyStardust, Amount: 100}},
		Admin:        model.AdminConfig{DailyRewardMultiplier: 1, MinWithdrawal: 100, PayoutRate: "0.01"},
	}
}

type fixture struct {
	m     *Manager
	store *memStore
	clock *clock.Manual
	gate  *ads.Gate
}

func open(t *testing.T, st *memStore, deps Deps) fixture {
	t.Helper()
	clk := clock.NewManual(t0)
	gate := ads.NewGate()
	deps.Store = st
	deps.Clock = clk
	deps.Ads = gate
	m, err := Open(context.Background(), deps, Options{
		PlayerID:        "p1",
		DisplayName:     "Nova",
		MaxEnergy:       1000,
		Catalogs:        testCatalogs(),
		Rules:           model.DefaultRules(),
		PersistDebounce: time.Millisecond,
		ManualHold:      true,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { m.cancel() })
	return fixture{m: m, store: st, clock: clk, gate: gate}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestOpenFreshPersistsImmediately(t *testing.T) {
	f := open(t, newMemStore(), Deps{})
	snap, ok := f.store.row("p1")
	if !ok {
		t.Fatal("fresh player was not persisted")
	}
	if snap.Level != 1 || snap.DisplayName != "Nova" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestHoldClaimThroughAd(t *testing.T) {
	f := open(t, newMemStore(), Deps{})
	f.m.mu.Lock()
	f.m.player.Balance = 1000
	f.m.player.CurrentEnergy = 500
	f.m.mu.Unlock()

	if err := f.m.StartHold(); err != nil {
		t.Fatalf("start hold: %v", err)
	}
	for i := 0; i < 10; i++ {
		f.clock.Advance(100 * time.Millisecond)
		if !f.m.HoldTick() {
			t.Fatalf("hold ended early at tick %d", i)
		}
	}
	if phase := f.m.ReleaseHold(); phase != hold.PendingClaim {
		t.Fatalf("expected pending claim, got %s", phase)
	}
	if p := f.m.Player(); p.CurrentEnergy != 490 || p.Balance != 1000 {
		t.Fatalf("unexpected state before claim: energy=%v balance=%v", p.CurrentEnergy, p.Balance)
	}

	ticket, err := f.m.ClaimHoldWithAd(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := f.gate.Complete(ticket); err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool { return math.Abs(f.m.Player().Balance-1002) < 1e-9 })
	if phase, _ := f.m.HoldState(); phase != hold.Idle {
		t.Errorf("expected idle after claim, got %s", phase)
	}
}

func TestBanStopsRunningHold(t *testing.T) {
	f := open(t, newMemStore(), Deps{})
	f.m.mu.Lock()
	f.m.player.CurrentEnergy = 500
	f.m.mu.Unlock()

	if err := f.m.StartHold(); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(100 * time.Millisecond)
	if !f.m.HoldTick() {
		t.Fatal("hold ended early")
	}
	if _, err := f.m.Dispatch(reducer.SetBanned{Banned: true}); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if phase, _ := f.m.HoldState(); phase == hold.Holding {
		t.Fatal("hold still running after ban")
	}
	energy := f.m.Player().CurrentEnergy
	f.clock.Advance(100 * time.Millisecond)
	if f.m.HoldTick() {
		t.Error("tick reported a running hold for a banned player")
	}
	if got := f.m.Player().CurrentEnergy; got != energy {
		t.Errorf("energy drained after ban: %v -> %v", energy, got)
	}
	if _, err := f.m.ConfirmHold(); !errors.Is(err, reducer.ErrBanned) {
		t.Errorf("expected ErrBanned on confirm, got %v", err)
	}
}

func TestAdFailureLeavesStateUnchanged(t *testing.T) {
	f := open(t, newMemStore(), Deps{})
	f.m.mu.Lock()
	f.m.player.CurrentEnergy = 100
	f.m.mu.Unlock()

	ticket, _, err := f.m.PurchaseDeal(context.Background(), "refill")
	if err != nil || ticket == "" {
		t.Fatalf("expected an ad ticket, got %q %v", ticket, err)
	}
	if err := f.gate.Fail(ticket, nil); err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool { return len(f.m.DrainNotices()) == 1 })
	if p := f.m.Player(); p.CurrentEnergy != 100 {
		t.Errorf("ad failure changed energy to %v", p.CurrentEnergy)
	}

	ticket, _, _ = f.m.PurchaseDeal(context.Background(), "refill")
	f.gate.Complete(ticket)
	eventually(t, func() bool { return f.m.Player().CurrentEnergy == 600 })
}

func TestDeletionGuardSuppressesPersist(t *testing.T) {
	f := open(t, newMemStore(), Deps{})
	if _, err := f.m.Dispatch(reducer.ClaimDailyReward{}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond) // let the on-demand save land first
	if err := f.m.BeginDeletion(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := f.m.PersistNow(context.Background(), "test"); !errors.Is(err, ErrDeleting) {
		t.Fatalf("expected ErrDeleting, got %v", err)
	}
	f.m.PersistPeriodic()
	time.Sleep(20 * time.Millisecond) // let any debounced save fire
	if _, ok := f.store.row("p1"); ok {
		t.Fatal("deleted row was resurrected")
	}
	if _, err := f.m.Dispatch(reducer.ClaimDailyReward{}); !errors.Is(err, ErrDeleting) {
		t.Errorf("expected ErrDeleting from dispatch, got %v", err)
	}
	if err := f.m.Close(context.Background()); err != nil {
		t.Errorf("close after delete: %v", err)
	}
}

func TestDeletionWaitsForInFlightPersist(t *testing.T) {
	st := newMemStore()
	f := open(t, st, Deps{})
	st.mu.Lock()
	st.entered = make(chan struct{}, 1)
	st.release = make(chan struct{})
	st.mu.Unlock()

	persisted := make(chan error, 1)
	go func() { persisted <- f.m.PersistNow(context.Background(), "test") }()
	<-st.entered

	deleted := make(chan error, 1)
	go func() { deleted <- f.m.BeginDeletion(context.Background()) }()
	select {
	case err := <-deleted:
		t.Fatalf("deletion finished while a save was in flight: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	close(st.release)
	if err := <-persisted; err != nil {
		t.Fatalf("in-flight persist: %v", err)
	}
	if err := <-deleted; err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := st.row("p1"); ok {
		t.Fatal("in-flight save resurrected the deleted row")
	}
}

func TestPersistFailureKeepsLocalState(t *testing.T) {
	st := newMemStore()
	f := open(t, st, Deps{})
	st.mu.Lock()
	st.failWith = errors.New("network down")
	st.mu.Unlock()

	p, err := f.m.Dispatch(reducer.ClaimDailyReward{})
	if err != nil {
		t.Fatalf("dispatch must not depend on the store: %v", err)
	}
	if p.Balance != 100 {
		t.Errorf("expected balance 100, got %v", p.Balance)
	}
	if err := f.m.PersistNow(context.Background(), "test"); !errors.Is(err, ErrExternal) {
		t.Errorf("expected ErrExternal, got %v", err)
	}
	if f.m.Player().Balance != 100 {
		t.Error("failed persist rolled back local state")
	}
}

func TestOfflineClaim(t *testing.T) {
	st := newMemStore()
	p := model.NewPlayer("p1", "Nova", 1000, t0.Add(-time.Hour))
	p.PassiveIncomePerHour = 1800
	p.HasOfflineEarningsUnlocked = true
	snap, _ := p.Snapshot()
	st.rows["p1"] = snap

	f := open(t, st, Deps{})
	if got := f.m.PendingOffline(); math.Abs(got-1800) > 1e-6 {
		t.Fatalf("expected 1800 pending, got %v", got)
	}
	if f.m.Player().Balance != 0 {
		t.Fatal("offline income merged before claim")
	}
	amount, err := f.m.ClaimOffline()
	if err != nil || math.Abs(amount-1800) > 1e-6 {
		t.Fatalf("claim: %v %v", amount, err)
	}
	if _, err := f.m.ClaimOffline(); !errors.Is(err, ErrNoOfflineIncome) {
		t.Errorf("second claim: expected ErrNoOfflineIncome, got %v", err)
	}
}

func TestApplyPush(t *testing.T) {
	f := open(t, newMemStore(), Deps{})
	stars := 77
	if f.m.ApplyPush(model.PlayerDelta{PlayerID: "someone-else", Stars: &stars}) {
		t.Error("push for another player applied")
	}
	banned := true
	if !f.m.ApplyPush(model.PlayerDelta{PlayerID: "p1", Stars: &stars, IsBanned: &banned}) {
		t.Fatal("push not applied")
	}
	p := f.m.Player()
	if p.Stars != 77 || !p.IsBanned || p.CurrentEnergy != 1000 {
		t.Errorf("unexpected player after push: %+v", p)
	}
	if _, err := f.m.Dispatch(reducer.ClaimDailyReward{}); !errors.Is(err, reducer.ErrBanned) {
		t.Errorf("expected ErrBanned, got %v", err)
	}
}

func TestVerifyTelegramTask(t *testing.T) {
	f := open(t, newMemStore(), Deps{Verifier: stubVerifier{err: errors.New("timeout")}})
	if _, err := f.m.Dispatch(reducer.OpenTask{TaskID: "tg"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.m.VerifyTelegramTask(context.Background(), "tg"); !errors.Is(err, ErrExternal) {
		t.Fatalf("expected ErrExternal, got %v", err)
	}
	if !f.m.Player().PendingTasks["tg"] {
		t.Fatal("verification failure lost the pending state")
	}

	f.m.verifier = stubVerifier{joined: true}
	p, err := f.m.VerifyTelegramTask(context.Background(), "tg")
	if err != nil {
		t.Fatal(err)
	}
	if p.Balance != 5000 || p.TaskProgressByID["tg"] != 1 {
		t.Errorf("reward not credited: %+v", p)
	}
}

func TestTickAndDayRollover(t *testing.T) {
	f := open(t, newMemStore(), Deps{})
	f.m.mu.Lock()
	f.m.player.PassiveIncomePerHour = 3600
	f.m.player.DailyCipherSolvedToday = true
	f.m.player.LastCipherSolvedAt = t0
	f.m.mu.Unlock()

	f.clock.Advance(5 * time.Second)
	f.m.Tick()
	if got := f.m.Player().Balance; got != 5 {
		t.Errorf("expected 5 after 5s at 3600/h, got %v", got)
	}
	if f.m.CheckDayRollover() {
		t.Error("reset within the same UTC day")
	}
	f.clock.Set(time.Date(2025, 8, 2, 0, 0, 1, 0, time.UTC))
	if !f.m.CheckDayRollover() || f.m.Player().DailyCipherSolvedToday {
		t.Error("expected cipher reset after midnight")
	}
}

func TestRequestWithdrawal(t *testing.T) {
	f := open(t, newMemStore(), Deps{})
	f.m.mu.Lock()
	f.m.player.Balance = 1000
	f.m.mu.Unlock()

	p, err := f.m.RequestWithdrawal(500, "0:"+"ab12"+"cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.WithdrawalHistory) != 1 || p.WithdrawalHistory[0].ID == "" || p.WithdrawalHistory[0].Payout != "5" {
		t.Errorf("unexpected withdrawal %+v", p.WithdrawalHistory)
	}
}
