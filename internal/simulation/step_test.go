package simulation

import (
	"testing"
	"time"

	"Stardust/internal/model"
)

var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestStep_PassiveIncomeAndBoost(t *testing.T) {
	p := model.NewPlayer("p", "p", 1000, t0)
	p.PassiveIncomePerHour = 3600
	p.ActiveBoosts = []model.Boost{
		{SourceID: "d", Kind: model.BoostPassiveAddend, Magnitude: 3600, ExpiresAt: t0.Add(time.Hour)},
	}

	p = Step(p, model.DefaultRules(), t0.Add(10*time.Second), false)
	if p.Balance != 20 {
		t.Errorf("expected 20 after 10s at 7200/h, got %v", p.Balance)
	}
	if !p.LastUpdate.Equal(t0.Add(10 * time.Second)) {
		t.Error("timestamp not advanced")
	}

	p = Step(p, model.DefaultRules(), t0.Add(2*time.Hour), false)
	if len(p.ActiveBoosts) != 0 {
		t.Errorf("expected expired boost pruned, got %+v", p.ActiveBoosts)
	}
}

func TestStep_BannedOrPausedOnlyAdvancesTimestamp(t *testing.T) {
	for _, tc := range []struct {
		name   string
		banned bool
		paused bool
	}{
		{"banned", true, false},
		{"paused", false, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := model.NewPlayer("p", "p", 1000, t0)
			p.PassiveIncomePerHour = 1000
			p.CurrentEnergy = 10
			p.IsBanned = tc.banned

			now := t0.Add(time.Hour)
			got := Step(p, model.DefaultRules(), now, tc.paused)
			if got.Balance != 0 || got.CurrentEnergy != 10 {
				t.Fatalf("state mutated: balance=%v energy=%v", got.Balance, got.CurrentEnergy)
			}
			if !got.LastUpdate.Equal(now) {
				t.Fatal("timestamp must still advance")
			}
		})
	}
}

func TestStep_EnergyBoundsAndMonotonicity(t *testing.T) {
	rules := model.DefaultRules()
	p := model.NewPlayer("p", "p", 1000, t0)
	p.CurrentEnergy = 0
	p.PassiveIncomePerHour = 123.45

	now := t0
	prev := p.Balance
	for i := 0; i < 500; i++ {
		now = now.Add(time.Duration(i%7+1) * time.Second)
		p = Step(p, rules, now, false)
		if p.CurrentEnergy < 0 || p.CurrentEnergy > p.MaxEnergy {
			t.Fatalf("tick %d: energy %v out of bounds", i, p.CurrentEnergy)
		}
		if p.Balance < prev {
			t.Fatalf("tick %d: balance decreased %v -> %v", i, prev, p.Balance)
		}
		prev = p.Balance
	}
	if p.CurrentEnergy != p.MaxEnergy {
		t.Errorf("expected a full tank after 30+ minutes, got %v", p.CurrentEnergy)
	}
}

func TestStep_RegenRate(t *testing.T) {
	p := model.NewPlayer("p", "p", 1800, t0)
	p.CurrentEnergy = 0
	p = Step(p, model.DefaultRules(), t0.Add(time.Minute), false)
	// 1800 per 30 minutes is 1 per second.
	if p.CurrentEnergy != 60 {
		t.Errorf("expected 60 energy, got %v", p.CurrentEnergy)
	}
}
