package reducer

import (
	"strings"

	"Stardust/internal/calculator"
	"Stardust/internal/model"
)

// ClaimDailyReward pays the next entry of the cycling reward table.
// The streak counter only ever increments; missed days do not reset it.
type ClaimDailyReward struct{}

func (ClaimDailyReward) Name() string { return "claim_daily_reward" }

func (ClaimDailyReward) apply(p *model.Player, env Env) error {
	if !DailyRewardAvailable(*p, env) {
		return ErrAlreadyClaimed
	}
	table := env.Catalogs.DailyRewards
	if len(table) == 0 {
		return ErrNotFound
	}
	reward := table[p.ConsecutiveDailyClaims%len(table)]
	switch reward.Kind {
	case model.DailyStars:
		p.Stars += int(reward.Amount)
	default:
		mult := env.Catalogs.Admin.DailyRewardMultiplier
		if mult <= 0 {
			mult = 1
		}
		p.Balance += reward.Amount * mult
	}
	p.LastDailyRewardClaimedAt = env.Now
	p.ConsecutiveDailyClaims++
	return nil
}

// DailyRewardAvailable reports whether strictly more than the reward interval has
// passed since the last claim.
func DailyRewardAvailable(p model.Player, env Env) bool {
	if p.LastDailyRewardClaimedAt.IsZero() {
		return true
	}
	return env.Now.Sub(p.LastDailyRewardClaimedAt) > env.Rules.DailyRewardInterval
}

// SolveCipher records a correct solve of the daily cipher.
type SolveCipher struct {
	Code string `json:"code"`
}

func (SolveCipher) Name() string { return "solve_cipher" }

func (a SolveCipher) apply(p *model.Player, env Env) error {
	if p.DailyCipherSolvedToday && !calculator.DifferentUTCDay(p.LastCipherSolvedAt, env.Now) {
		return ErrAlreadyClaimed
	}
	if want := env.Catalogs.Admin.CipherCode; want != "" && normalizeCode(a.Code) != normalizeCode(want) {
		return ErrCodeMismatch
	}
	p.DailyCipherSolvedToday = true
	p.LastCipherSolvedAt = env.Now
	p.Balance += env.Catalogs.Admin.CipherReward
	return nil
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}
