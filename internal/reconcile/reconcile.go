// Package reconcile turns a persisted snapshot into a live Player at load time
// and merges field-level pushes from other writers.
package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"Stardust/internal/boost"
	"Stardust/internal/calculator"
	"Stardust/internal/model"
	"Stardust/internal/progression"
	"Stardust/internal/reducer"
)

var ErrInvalidSnapshot = errors.New("invalid player snapshot")

// Result is the outcome of a load.
type Result struct {
	Player model.Player
	// OfflineIncome is claimable, not yet merged into the balance.
	OfflineIncome float64
	// Fresh is set when no snapshot existed; the caller should persist immediately.
	Fresh bool
}

// Options carries the load-time inputs that do not come from the snapshot.
type Options struct {
	PlayerID    string
	DisplayName string
	MaxEnergy   float64
	Catalogs    model.Catalogs
	Rules       model.Rules
	Now         time.Time
}

// Load reconciles snap (nil when the player has never been saved) against the catalogs.
func Load(snap *model.PlayerSnapshot, opts Options) (Result, error) {
	if snap == nil {
		id := opts.PlayerID
		if id == "" {
			id = uuid.NewString()
		}
		p := model.NewPlayer(id, opts.DisplayName, opts.MaxEnergy, opts.Now)
		p.Upgrades = MergeUpgrades(opts.Catalogs.Upgrades, nil)
		return Result{Player: p, Fresh: true}, nil
	}

	st, err := DecodeState(snap.State)
	if err != nil {
		return Result{}, err
	}

	p := fromState(st, opts)
	// Server-authoritative row fields win over anything in the blob.
	p.ID = snap.ID
	if p.ID == "" {
		p.ID = opts.PlayerID
	}
	p.DisplayName = snap.DisplayName
	if p.DisplayName == "" {
		p.DisplayName = opts.DisplayName
	}
	p.AvatarRef = snap.AvatarRef
	p.Balance = snap.Balance
	p.Level = clampLevel(snap.Level)
	p.Stars = snap.Stars
	p.ReferralCount = snap.ReferralCount
	p.IsBanned = snap.IsBanned

	p.Upgrades = MergeUpgrades(opts.Catalogs.Upgrades, st.Upgrades)
	if id := opts.Catalogs.Admin.OfflineUpgradeID; id != "" {
		if i := p.UpgradeIndex(id); i >= 0 && p.Upgrades[i].Level > 0 {
			p.HasOfflineEarningsUnlocked = true
		}
	}

	last := p.LastUpdate
	if last.IsZero() {
		last = snap.UpdatedAt
	}

	var offline float64
	if p.HasOfflineEarningsUnlocked && !p.IsBanned {
		offline = calculator.OfflineIncome(p.PassiveIncomePerHour, last, opts.Now, opts.Rules.OfflineMin)
	}
	if !p.IsBanned {
		p.CurrentEnergy = calculator.RegenerateEnergy(p.CurrentEnergy, p.MaxEnergy, opts.Rules.EnergyRefill,
			calculator.ElapsedSeconds(opts.Now, last))
	}

	p, _ = ResetCipherIfNewDay(p, opts.Now)
	p.LastUpdate = opts.Now
	return Result{Player: p, OfflineIncome: offline}, nil
}

// DecodeState parses the nested blob. Unknown fields are logged and ignored so
// a blob written by a newer build still loads; malformed JSON is rejected.
func DecodeState(raw json.RawMessage) (model.PlayerState, error) {
	var st model.PlayerState
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return st, nil
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return model.PlayerState{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	var strict model.PlayerState
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&strict); err != nil {
		log.Printf("[WARN] ignoring unknown state fields: %v", err)
	}
	return st, nil
}

// fromState applies the per-field defaulting rules to the decoded blob.
func fromState(st model.PlayerState, opts Options) model.Player {
	p := model.NewPlayer(opts.PlayerID, opts.DisplayName, opts.MaxEnergy, opts.Now)

	if st.MaxEnergy != nil && *st.MaxEnergy > 0 {
		p.MaxEnergy = *st.MaxEnergy
	}
	p.CurrentEnergy = p.MaxEnergy
	if st.CurrentEnergy != nil {
		p.CurrentEnergy = calculator.ClampEnergy(*st.CurrentEnergy, p.MaxEnergy)
	}
	if st.EarnRatePerTap != nil && *st.EarnRatePerTap >= 1 {
		p.EarnRatePerTap = *st.EarnRatePerTap
	}
	if st.PassiveIncomePerHour != nil && *st.PassiveIncomePerHour > 0 {
		p.PassiveIncomePerHour = *st.PassiveIncomePerHour
	}
	if st.HoldEarnMultiplier != nil && *st.HoldEarnMultiplier > 0 {
		p.HoldEarnMultiplier = *st.HoldEarnMultiplier
	}
	p.LastUpdate = st.LastUpdate

	p.LevelUpAdWatchCount = max(0, st.LevelUpAdWatchCount)
	p.ConsecutiveDailyClaims = max(0, st.ConsecutiveDailyClaims)

	p.LastDailyRewardClaimedAt = st.LastDailyRewardClaimedAt
	p.LastCipherSolvedAt = st.LastCipherSolvedAt
	p.LastEnergyBoostClaimedAt = st.LastEnergyBoostClaimedAt
	p.LastAdWatchedAt = st.LastAdWatchedAt
	p.LastWithdrawalAt = st.LastWithdrawalAt

	p.DailyCipherSolvedToday = st.DailyCipherSolvedToday
	p.HasOfflineEarningsUnlocked = st.HasOfflineEarningsUnlocked
	p.HasCompletedFollowTask = st.HasCompletedFollowTask

	if st.TaskProgressByID != nil {
		p.TaskProgressByID = st.TaskProgressByID
	}
	if st.PendingTasks != nil {
		p.PendingTasks = st.PendingTasks
	}
	if st.LastDealPurchaseAtByID != nil {
		p.LastDealPurchaseAtByID = st.LastDealPurchaseAtByID
	}
	known := lo.Filter(st.ActiveBoosts, func(b model.Boost, _ int) bool {
		return (b.Kind == model.BoostTapMultiplier || b.Kind == model.BoostPassiveAddend) && !b.ExpiresAt.IsZero()
	})
	// At most one boost per kind survives; the latest entry wins.
	p.ActiveBoosts = lo.Reduce(boost.PruneExpired(known, opts.Now), func(acc []model.Boost, b model.Boost, _ int) []model.Boost {
		return boost.Upsert(acc, b)
	}, []model.Boost{})
	p.WithdrawalHistory = st.WithdrawalHistory
	return p
}

// MergeUpgrades takes every catalog upgrade with the player's saved level.
// Levels are clamped to the upgrade cap and the next-level cost is replayed from
// the base price. Saved entries absent from the catalog are dropped.
func MergeUpgrades(catalog []model.Upgrade, saved []model.SavedUpgrade) []model.Upgrade {
	levels := lo.SliceToMap(saved, func(s model.SavedUpgrade) (string, int) {
		return s.ID, s.Level
	})
	out := make([]model.Upgrade, 0, len(catalog))
	for _, u := range catalog {
		if u.BaseCost <= 0 {
			u.BaseCost = u.Cost
		}
		u.Level = min(max(levels[u.ID], 0), u.MaxLevel)
		u.Cost = reducer.CostAtLevel(u.BaseCost, u.CostGrowthFactor, u.Level)
		out = append(out, u)
	}
	return out
}

// ResetCipherIfNewDay clears the solved-today flag once the UTC day has rolled over.
// It reports whether the flag was reset.
func ResetCipherIfNewDay(p model.Player, now time.Time) (model.Player, bool) {
	if !p.DailyCipherSolvedToday {
		return p, false
	}
	if calculator.UTCDayIndex(p.LastCipherSolvedAt) >= calculator.UTCDayIndex(now) {
		return p, false
	}
	p.DailyCipherSolvedToday = false
	return p, true
}

// MergePush applies the push-safe fields of d. Energy, boosts and balance are
// local simulation state and are never taken from a push.
func MergePush(p model.Player, d model.PlayerDelta) model.Player {
	if d.ReferralCount != nil {
		p.ReferralCount = *d.ReferralCount
	}
	if d.Stars != nil {
		p.Stars = *d.Stars
	}
	if d.Level != nil {
		p.Level = clampLevel(*d.Level)
	}
	if d.IsBanned != nil {
		p.IsBanned = *d.IsBanned
	}
	return p
}

func clampLevel(level int) int {
	return min(max(level, 1), progression.MaxLevel)
}
