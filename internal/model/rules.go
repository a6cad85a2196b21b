package model

import "time"

// Rules are the tunable game parameters shared by the reducer, the hold session,
// the update loop and load-time reconciliation.
type Rules struct {
	EnergyRefill        time.Duration
	TickEarnFactor      float64
	EnergyDrainPerTick  float64
	HoldTick            time.Duration
	WithdrawalCooldown  time.Duration
	AdCooldown          time.Duration
	DailyRewardInterval time.Duration
	OfflineMin          time.Duration
	DefaultBoostTTL     time.Duration
}

// DefaultRules returns the production defaults.
func DefaultRules() Rules {
	return Rules{
		EnergyRefill:        30 * time.Minute,
		TickEarnFactor:      0.2,
		EnergyDrainPerTick:  1,
		HoldTick:            100 * time.Millisecond,
		WithdrawalCooldown:  24 * time.Hour,
		AdCooldown:          30 * time.Second,
		DailyRewardInterval: 24 * time.Hour,
		OfflineMin:          time.Minute,
		DefaultBoostTTL:     time.Hour,
	}
}
