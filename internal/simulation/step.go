// Package simulation advances the time-driven part of a player: passive income,
// energy regeneration and boost expiry.
package simulation

import (
	"time"

	"Stardust/internal/boost"
	"Stardust/internal/calculator"
	"Stardust/internal/model"
)

// Step advances p from p.LastUpdate to now using the true elapsed delta.
// A banned or paused player is not mutated, but the timestamp still moves so
// an unban does not release a burst of catch-up income.
func Step(p model.Player, rules model.Rules, now time.Time, paused bool) model.Player {
	if now.Before(p.LastUpdate) {
		return p
	}
	if p.IsBanned || paused {
		p.LastUpdate = now
		return p
	}
	elapsed := calculator.ElapsedSeconds(now, p.LastUpdate)

	next := p.Clone()
	next.ActiveBoosts = boost.PruneExpired(next.ActiveBoosts, now)

	rate := next.PassiveIncomePerHour + boost.EffectivePassiveAddend(next.ActiveBoosts, now)
	if rate > 0 {
		next.Balance += calculator.PassiveIncomeAccrued(rate, elapsed)
	}
	next.CurrentEnergy = calculator.RegenerateEnergy(next.CurrentEnergy, next.MaxEnergy, rules.EnergyRefill, elapsed)
	next.LastUpdate = now
	return next
}
