// Package boost manages the time-limited effects attached to a player.
// Expired entries are pruned lazily by whoever reads the ledger.
package boost

import (
	"time"

	"github.com/samber/lo"

	"Stardust/internal/model"
)

// Active reports whether b is still in effect at now.
func Active(b model.Boost, now time.Time) bool {
	return b.ExpiresAt.After(now)
}

// PruneExpired drops every boost with ExpiresAt <= now.
func PruneExpired(boosts []model.Boost, now time.Time) []model.Boost {
	return lo.Filter(boosts, func(b model.Boost, _ int) bool {
		return Active(b, now)
	})
}

// Upsert replaces any boost of the same kind with nb. The last purchase wins;
// durations and magnitudes never stack.
func Upsert(boosts []model.Boost, nb model.Boost) []model.Boost {
	out := lo.Reject(boosts, func(b model.Boost, _ int) bool {
		return b.Kind == nb.Kind
	})
	return append(out, nb)
}

// EffectiveTapMultiplier returns the magnitude of the unexpired tap multiplier, or 1.
func EffectiveTapMultiplier(boosts []model.Boost, now time.Time) float64 {
	b, ok := lo.Find(boosts, func(b model.Boost) bool {
		return b.Kind == model.BoostTapMultiplier && Active(b, now)
	})
	if !ok {
		return 1
	}
	return b.Magnitude
}

// EffectivePassiveAddend sums the magnitudes of unexpired passive-income boosts.
func EffectivePassiveAddend(boosts []model.Boost, now time.Time) float64 {
	active := lo.Filter(boosts, func(b model.Boost, _ int) bool {
		return b.Kind == model.BoostPassiveAddend && Active(b, now)
	})
	return lo.SumBy(active, func(b model.Boost) float64 { return b.Magnitude })
}

// Remaining returns how long the boost of the given kind stays active, or zero.
func Remaining(boosts []model.Boost, kind model.BoostKind, now time.Time) time.Duration {
	b, ok := lo.Find(boosts, func(b model.Boost) bool {
		return b.Kind == kind && Active(b, now)
	})
	if !ok {
		return 0
	}
	return b.ExpiresAt.Sub(now)
}
