package reducer

import (
	"fmt"
	"time"

	"Stardust/internal/calculator"
	"Stardust/internal/model"
	"Stardust/internal/progression"
)

// WatchLevelUpAd counts a completed level-up ad and advances the level when
// both the balance and ad thresholds are met. Level-ups never spend balance.
type WatchLevelUpAd struct{}

func (WatchLevelUpAd) Name() string { return "watch_level_up_ad" }

func (WatchLevelUpAd) apply(p *model.Player, env Env) error {
	if p.Level >= progression.MaxLevel {
		return ErrMaxLevel
	}
	if rem := calculator.RemainingCooldown(p.LastAdWatchedAt, env.Rules.AdCooldown, env.Now); rem > 0 {
		return fmt.Errorf("%w (%s remaining)", ErrCooldownActive, rem.Round(time.Second))
	}
	p.LevelUpAdWatchCount++
	p.LastAdWatchedAt = env.Now
	tryLevelUp(p)
	return nil
}

// LevelUp advances the level if the thresholds were met without a new ad.
type LevelUp struct{}

func (LevelUp) Name() string { return "level_up" }

func (LevelUp) apply(p *model.Player, _ Env) error {
	if p.Level >= progression.MaxLevel {
		return ErrMaxLevel
	}
	if !tryLevelUp(p) {
		return ErrIneligible
	}
	return nil
}

func tryLevelUp(p *model.Player) bool {
	if !progression.CanLevelUp(p.Level, p.Balance, p.LevelUpAdWatchCount) {
		return false
	}
	p.Level++
	p.LevelUpAdWatchCount = 0
	return true
}
