package model

import (
	"encoding/json"
	"time"
)

// PlayerSnapshot is the persisted shape exchanged with the remote store.
// Row fields are server-authoritative; State carries the nested simulation blob.
type PlayerSnapshot struct {
	ID            string          `json:"id"`
	DisplayName   string          `json:"display_name"`
	AvatarRef     string          `json:"avatar_ref,omitempty"`
	Balance       float64         `json:"balance"`
	Level         int             `json:"level"`
	Stars         int             `json:"stars"`
	ReferralCount int             `json:"referral_count"`
	IsBanned      bool            `json:"is_banned"`
	State         json.RawMessage `json:"state,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PlayerState is the strict schema of the nested blob.
// Pointer fields distinguish "absent" from zero so the loader can default them.
type PlayerState struct {
	EarnRatePerTap       *int      `json:"earn_rate_per_tap,omitempty"`
	PassiveIncomePerHour *float64  `json:"passive_income_per_hour,omitempty"`
	HoldEarnMultiplier   *float64  `json:"hold_earn_multiplier,omitempty"`
	CurrentEnergy        *float64  `json:"current_energy,omitempty"`
	MaxEnergy            *float64  `json:"max_energy,omitempty"`
	LastUpdate           time.Time `json:"last_update"`

	LevelUpAdWatchCount    int `json:"level_up_ad_watch_count"`
	ConsecutiveDailyClaims int `json:"consecutive_daily_claims"`

	LastDailyRewardClaimedAt time.Time `json:"last_daily_reward_claimed_at"`
	LastCipherSolvedAt       time.Time `json:"last_cipher_solved_at"`
	LastEnergyBoostClaimedAt time.Time `json:"last_energy_boost_claimed_at"`
	LastAdWatchedAt          time.Time `json:"last_ad_watched_at"`
	LastWithdrawalAt         time.Time `json:"last_withdrawal_at"`

	DailyCipherSolvedToday     bool `json:"daily_cipher_solved_today"`
	HasOfflineEarningsUnlocked bool `json:"has_offline_earnings_unlocked"`
	HasCompletedFollowTask     bool `json:"has_completed_follow_task"`

	TaskProgressByID       map[string]int       `json:"task_progress_by_id,omitempty"`
	PendingTasks           map[string]bool      `json:"pending_tasks,omitempty"`
	ActiveBoosts           []Boost              `json:"active_boosts,omitempty"`
	LastDealPurchaseAtByID map[string]time.Time `json:"last_deal_purchase_at_by_id,omitempty"`
	WithdrawalHistory      []Withdrawal         `json:"withdrawal_history,omitempty"`
	Upgrades               []SavedUpgrade       `json:"upgrades,omitempty"`
}

// SavedUpgrade is the per-player part of an upgrade; definitions come from the catalog.
type SavedUpgrade struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

// Snapshot serializes the player into its persisted shape.
func (p Player) Snapshot() (PlayerSnapshot, error) {
	st := PlayerState{
		EarnRatePerTap:             &p.EarnRatePerTap,
		PassiveIncomePerHour:       &p.PassiveIncomePerHour,
		HoldEarnMultiplier:         &p.HoldEarnMultiplier,
		CurrentEnergy:              &p.CurrentEnergy,
		MaxEnergy:                  &p.MaxEnergy,
		LastUpdate:                 p.LastUpdate,
		LevelUpAdWatchCount:        p.LevelUpAdWatchCount,
		ConsecutiveDailyClaims:     p.ConsecutiveDailyClaims,
		LastDailyRewardClaimedAt:   p.LastDailyRewardClaimedAt,
		LastCipherSolvedAt:         p.LastCipherSolvedAt,
		LastEnergyBoostClaimedAt:   p.LastEnergyBoostClaimedAt,
		LastAdWatchedAt:            p.LastAdWatchedAt,
		LastWithdrawalAt:           p.LastWithdrawalAt,
		DailyCipherSolvedToday:     p.DailyCipherSolvedToday,
		HasOfflineEarningsUnlocked: p.HasOfflineEarningsUnlocked,
		HasCompletedFollowTask:     p.HasCompletedFollowTask,
		TaskProgressByID:           p.TaskProgressByID,
		PendingTasks:               p.PendingTasks,
		ActiveBoosts:               p.ActiveBoosts,
		LastDealPurchaseAtByID:     p.LastDealPurchaseAtByID,
		WithdrawalHistory:          p.WithdrawalHistory,
	}
	for _, u := range p.Upgrades {
		st.Upgrades = append(st.Upgrades, SavedUpgrade{ID: u.ID, Level: u.Level})
	}
	blob, err := json.Marshal(st)
	if err != nil {
		return PlayerSnapshot{}, err
	}
	return PlayerSnapshot{
		ID:            p.ID,
		DisplayName:   p.DisplayName,
		AvatarRef:     p.AvatarRef,
		Balance:       p.Balance,
		Level:         p.Level,
		Stars:         p.Stars,
		ReferralCount: p.ReferralCount,
		IsBanned:      p.IsBanned,
		State:         blob,
		UpdatedAt:     p.LastUpdate,
	}, nil
}

// PlayerDelta is a partial update pushed by another writer.
// Only the fields present here may be overwritten by a push.
type PlayerDelta struct {
	PlayerID      string `json:"player_id"`
	ReferralCount *int   `json:"referral_count,omitempty"`
	Stars         *int   `json:"stars,omitempty"`
	Level         *int   `json:"level,omitempty"`
	IsBanned      *bool  `json:"is_banned,omitempty"`
}
