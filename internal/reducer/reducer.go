// Package reducer holds the transition functions of the Player aggregate.
//
// Every action is a pure function of (player, catalogs, rules, now, input).
// On failure the input player is returned unchanged together with a tagged
// error; callers decide whether to surface it.
package reducer

import (
	"time"

	"Stardust/internal/model"
)

// Env is everything an action may read besides the player.
type Env struct {
	Catalogs model.Catalogs
	Rules    model.Rules
	Now      time.Time
}

// Action is a single reducer transition.
type Action interface {
	Name() string
	apply(p *model.Player, env Env) error
}

// adminAction marks transitions that originate outside the player and bypass the ban gate.
type adminAction interface {
	admin()
}

// Apply runs a on a private copy of p. The copy is returned only on success.
func Apply(p model.Player, env Env, a Action) (model.Player, error) {
	if _, ok := a.(adminAction); !ok && p.IsBanned {
		return p, ErrBanned
	}
	next := p.Clone()
	if err := a.apply(&next, env); err != nil {
		return p, err
	}
	return next, nil
}

// Significant reports whether a successful action should trigger an on-demand persist.
func Significant(a Action) bool {
	switch a.(type) {
	case PurchaseUpgrade, PurchaseDeal, ClaimDailyReward, SolveCipher, InitiateWithdrawal,
		SettleWithdrawal, SetBanned, VerifyTelegramTask, ClaimVideoTask, RecordTaskAd, LevelUp, WatchLevelUpAd:
		return true
	}
	return false
}
