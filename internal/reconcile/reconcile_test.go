package reconcile

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"Stardust/internal/model"
)

var t0 = time.Date(2025, 4, 20, 15, 30, 0, 0, time.UTC)

func catalogs() model.Catalogs {
	return model.Catalogs{
		Upgrades: []model.Upgrade{
			{ID: "miner", BaseCost: 1500, CostGrowthFactor: 1.6, MaxLevel: 5, Effect: model.UpgradeEffect{PassiveAdd: 100}},
			{ID: "offline", CostCurrency: model.CurrencyPremium, Cost: 10, MaxLevel: 1},
		},
		Admin: model.AdminConfig{OfflineUpgradeID: "offline"},
	}
}

func opts(now time.Time) Options {
	return Options{PlayerID: "p1", DisplayName: "Nova", MaxEnergy: 1000, Catalogs: catalogs(), Rules: model.DefaultRules(), Now: now}
}

func TestLoadFresh(t *testing.T) {
	res, err := Load(nil, opts(t0))
	if err != nil {
		t.Fatal(err)
	}
	p := res.Player
	if !res.Fresh {
		t.Error("expected fresh")
	}
	if p.ID != "p1" || p.Balance != 0 || p.Level != 1 || p.CurrentEnergy != 1000 || p.MaxEnergy != 1000 {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if len(p.Upgrades) != 2 || p.Upgrades[0].Cost != 1500 {
		t.Errorf("expected catalog upgrades at level 0, got %+v", p.Upgrades)
	}

	o := opts(t0)
	o.PlayerID = ""
	res, _ = Load(nil, o)
	if res.Player.ID == "" {
		t.Error("expected generated fallback id")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	p := model.NewPlayer("p1", "Nova", 1000, t0)
	p.Balance = 12345.678
	p.Stars = 7
	p.Level = 4
	p.ReferralCount = 2
	p.EarnRatePerTap = 3
	p.PassiveIncomePerHour = 250.5
	p.HoldEarnMultiplier = 1.5
	p.CurrentEnergy = 321.25
	p.LevelUpAdWatchCount = 1
	p.ConsecutiveDailyClaims = 9
	p.LastDailyRewardClaimedAt = t0.Add(-time.Hour)
	p.LastWithdrawalAt = t0.Add(-2 * time.Hour)
	p.HasCompletedFollowTask = true
	p.TaskProgressByID["yt"] = 2
	p.PendingTasks["tg"] = true
	p.LastDealPurchaseAtByID["tap2x"] = t0.Add(-time.Minute)
	p.ActiveBoosts = []model.Boost{{SourceID: "tap2x", Kind: model.BoostTapMultiplier, Magnitude: 2, ExpiresAt: t0.Add(time.Hour)}}
	p.WithdrawalHistory = []model.Withdrawal{{ID: "w1", Amount: 1000, Address: "x", Payout: "0.1", Status: model.WithdrawalPending, CreatedAt: t0}}
	p.Upgrades = MergeUpgrades(catalogs().Upgrades, []model.SavedUpgrade{{ID: "miner", Level: 2}})

	snap, err := p.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	// Simulate the store round trip.
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var back model.PlayerSnapshot
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}

	res, err := Load(&back, opts(t0))
	if err != nil {
		t.Fatal(err)
	}
	got := res.Player
	if res.Fresh || res.OfflineIncome != 0 {
		t.Errorf("unexpected result flags: %+v", res)
	}
	if !reflect.DeepEqual(got, p) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, p)
	}
}

func TestLoadServerFieldsWin(t *testing.T) {
	p := model.NewPlayer("p1", "Nova", 1000, t0)
	p.Balance = 500
	snap, _ := p.Snapshot()
	snap.Balance = 9000
	snap.Level = 99
	snap.Stars = 3
	snap.IsBanned = true

	res, err := Load(&snap, opts(t0))
	if err != nil {
		t.Fatal(err)
	}
	if res.Player.Balance != 9000 || res.Player.Level != 25 || res.Player.Stars != 3 || !res.Player.IsBanned {
		t.Errorf("server fields not applied: %+v", res.Player)
	}
}

func TestLoadDefaultsMissingFields(t *testing.T) {
	snap := model.PlayerSnapshot{ID: "p1", Level: 2, State: json.RawMessage(`{"earn_rate_per_tap":0,"upgrades":[{"id":"miner","level":40},{"id":"gone","level":3}]}`)}
	res, err := Load(&snap, opts(t0))
	if err != nil {
		t.Fatal(err)
	}
	p := res.Player
	if p.EarnRatePerTap != 1 || p.HoldEarnMultiplier != 1 || p.CurrentEnergy != 1000 {
		t.Errorf("defaults not applied: %+v", p)
	}
	if p.Upgrades[0].Level != 5 {
		t.Errorf("expected level clamped to 5, got %d", p.Upgrades[0].Level)
	}
	if len(p.Upgrades) != 2 {
		t.Errorf("expected unknown saved upgrade dropped, got %+v", p.Upgrades)
	}
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	snap := model.PlayerSnapshot{ID: "p1", State: json.RawMessage(`{"bogus":1,"earn_rate_per_tap":3}`)}
	res, err := Load(&snap, opts(t0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Player.EarnRatePerTap != 3 {
		t.Errorf("expected earn rate 3, got %d", res.Player.EarnRatePerTap)
	}
}

func TestLoadRejectsMalformedState(t *testing.T) {
	for _, raw := range []string{`{`, `[1,2]`, `{"earn_rate_per_tap":"three"}`} {
		snap := model.PlayerSnapshot{ID: "p1", State: json.RawMessage(raw)}
		if _, err := Load(&snap, opts(t0)); !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("%s: expected ErrInvalidSnapshot, got %v", raw, err)
		}
	}
}

func TestLoadKeepsOneBoostPerKind(t *testing.T) {
	p := model.NewPlayer("p1", "Nova", 1000, t0)
	p.ActiveBoosts = []model.Boost{
		{SourceID: "tap2x", Kind: model.BoostTapMultiplier, Magnitude: 2, ExpiresAt: t0.Add(time.Hour)},
		{SourceID: "tap5x", Kind: model.BoostTapMultiplier, Magnitude: 5, ExpiresAt: t0.Add(30 * time.Minute)},
		{SourceID: "passive", Kind: model.BoostPassiveAddend, Magnitude: 100, ExpiresAt: t0.Add(-time.Minute)},
	}
	snap, err := p.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	res, err := Load(&snap, opts(t0))
	if err != nil {
		t.Fatal(err)
	}
	got := res.Player.ActiveBoosts
	if len(got) != 1 {
		t.Fatalf("expected a single boost, got %+v", got)
	}
	if got[0].Kind != model.BoostTapMultiplier || got[0].Magnitude != 5 {
		t.Errorf("expected the later tap boost to win, got %+v", got[0])
	}
}

func TestOfflineIncomeOneHour(t *testing.T) {
	p := model.NewPlayer("p1", "Nova", 1000, t0)
	p.PassiveIncomePerHour = 4321
	p.HasOfflineEarningsUnlocked = true
	snap, _ := p.Snapshot()

	res, err := Load(&snap, opts(t0.Add(time.Hour)))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.OfflineIncome-4321) > 1e-6 {
		t.Errorf("expected offline income 4321, got %v", res.OfflineIncome)
	}
	if res.Player.Balance != 0 {
		t.Error("offline income must not be merged automatically")
	}
	if !res.Player.LastUpdate.Equal(t0.Add(time.Hour)) {
		t.Error("expected LastUpdate = now")
	}

	res, _ = Load(&snap, opts(t0.Add(30*time.Second)))
	if res.OfflineIncome != 0 {
		t.Errorf("expected nothing under the threshold, got %v", res.OfflineIncome)
	}

	p.HasOfflineEarningsUnlocked = false
	snap, _ = p.Snapshot()
	res, _ = Load(&snap, opts(t0.Add(time.Hour)))
	if res.OfflineIncome != 0 {
		t.Errorf("expected nothing while locked, got %v", res.OfflineIncome)
	}
}

func TestResetCipherIfNewDay(t *testing.T) {
	solved := time.Date(2025, 4, 20, 23, 59, 0, 0, time.UTC)
	p := model.NewPlayer("p", "p", 1000, solved)
	p.DailyCipherSolvedToday = true
	p.LastCipherSolvedAt = solved

	tests := []struct {
		name  string
		now   time.Time
		reset bool
	}{
		{"same day", solved.Add(30 * time.Second), false},
		{"next day", time.Date(2025, 4, 21, 0, 0, 0, 0, time.UTC), true},
		{"week later", solved.Add(7 * 24 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reset := ResetCipherIfNewDay(p, tt.now)
			if reset != tt.reset || got.DailyCipherSolvedToday == tt.reset {
				t.Errorf("reset=%v flag=%v, want reset=%v", reset, got.DailyCipherSolvedToday, tt.reset)
			}
		})
	}
}

func TestMergePush(t *testing.T) {
	p := model.NewPlayer("p", "p", 1000, t0)
	p.CurrentEnergy = 200
	p.Balance = 50
	stars, level, banned := 40, 3, true

	got := MergePush(p, model.PlayerDelta{PlayerID: "p", Stars: &stars, Level: &level, IsBanned: &banned})
	if got.Stars != 40 || got.Level != 3 || !got.IsBanned {
		t.Errorf("push fields not applied: %+v", got)
	}
	if got.CurrentEnergy != 200 || got.Balance != 50 || got.ReferralCount != 0 {
		t.Error("push overwrote local fields")
	}
}
