package model

import "time"

// Player is the single mutable aggregate owned by a client session.
// Zero-valued timestamps mean "never happened".
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref,omitempty"`

	Balance              float64 `json:"balance"`
	EarnRatePerTap       int     `json:"earn_rate_per_tap"`
	PassiveIncomePerHour float64 `json:"passive_income_per_hour"`
	HoldEarnMultiplier   float64 `json:"hold_earn_multiplier"`

	CurrentEnergy float64   `json:"current_energy"`
	MaxEnergy     float64   `json:"max_energy"`
	LastUpdate    time.Time `json:"last_update"`

	Level                  int `json:"level"`
	LevelUpAdWatchCount    int `json:"level_up_ad_watch_count"`
	Stars                  int `json:"stars"`
	ReferralCount          int `json:"referral_count"`
	ConsecutiveDailyClaims int `json:"consecutive_daily_claims"`

	LastDailyRewardClaimedAt time.Time `json:"last_daily_reward_claimed_at"`
	LastCipherSolvedAt       time.Time `json:"last_cipher_solved_at"`
	LastEnergyBoostClaimedAt time.Time `json:"last_energy_boost_claimed_at"`
	LastAdWatchedAt          time.Time `json:"last_ad_watched_at"`
	LastWithdrawalAt         time.Time `json:"last_withdrawal_at"`

	DailyCipherSolvedToday     bool `json:"daily_cipher_solved_today"`
	HasOfflineEarningsUnlocked bool `json:"has_offline_earnings_unlocked"`
	HasCompletedFollowTask     bool `json:"has_completed_follow_task"`
	IsBanned                   bool `json:"is_banned"`

	TaskProgressByID       map[string]int       `json:"task_progress_by_id"`
	PendingTasks           map[string]bool      `json:"pending_tasks"`
	ActiveBoosts           []Boost              `json:"active_boosts"`
	LastDealPurchaseAtByID map[string]time.Time `json:"last_deal_purchase_at_by_id"`
	WithdrawalHistory      []Withdrawal         `json:"withdrawal_history"`
	Upgrades               []Upgrade            `json:"upgrades"`
}

// Default player values for a freshly created aggregate.
const (
	DefaultMaxEnergy      = 1000
	DefaultEarnRatePerTap = 1
)

// NewPlayer returns a fresh player with documented defaults.
func NewPlayer(id, displayName string, maxEnergy float64, now time.Time) Player {
	if maxEnergy <= 0 {
		maxEnergy = DefaultMaxEnergy
	}
	return Player{
		ID:                     id,
		DisplayName:            displayName,
		EarnRatePerTap:         DefaultEarnRatePerTap,
		HoldEarnMultiplier:     1,
		CurrentEnergy:          maxEnergy,
		MaxEnergy:              maxEnergy,
		LastUpdate:             now,
		Level:                  1,
		TaskProgressByID:       map[string]int{},
		PendingTasks:           map[string]bool{},
		LastDealPurchaseAtByID: map[string]time.Time{},
	}
}

// Clone returns a deep copy so reducers never alias the caller's collections.
func (p Player) Clone() Player {
	c := p
	c.TaskProgressByID = make(map[string]int, len(p.TaskProgressByID))
	for k, v := range p.TaskProgressByID {
		c.TaskProgressByID[k] = v
	}
	c.PendingTasks = make(map[string]bool, len(p.PendingTasks))
	for k, v := range p.PendingTasks {
		c.PendingTasks[k] = v
	}
	c.LastDealPurchaseAtByID = make(map[string]time.Time, len(p.LastDealPurchaseAtByID))
	for k, v := range p.LastDealPurchaseAtByID {
		c.LastDealPurchaseAtByID[k] = v
	}
	if p.ActiveBoosts != nil {
		c.ActiveBoosts = append([]Boost(nil), p.ActiveBoosts...)
	}
	if p.WithdrawalHistory != nil {
		c.WithdrawalHistory = append([]Withdrawal(nil), p.WithdrawalHistory...)
	}
	if p.Upgrades != nil {
		c.Upgrades = append([]Upgrade(nil), p.Upgrades...)
	}
	return c
}

// UpgradeIndex returns the position of the upgrade with the given id, or -1.
func (p *Player) UpgradeIndex(id string) int {
	for i := range p.Upgrades {
		if p.Upgrades[i].ID == id {
			return i
		}
	}
	return -1
}

// LeaderboardEntry is a read-only row for display.
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	PlayerID    string  `json:"player_id"`
	DisplayName string  `json:"display_name"`
	Balance     float64 `json:"balance"`
	Level       int     `json:"level"`
}
