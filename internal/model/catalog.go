package model

import "time"

// BoostKind identifies the effect a boost applies.
type BoostKind string

const (
	BoostTapMultiplier BoostKind = "multiplier-on-tap"
	BoostPassiveAddend BoostKind = "passive-income-addend"
)

// Boost is a time-limited effect attached to a player.
type Boost struct {
	SourceID  string    `json:"source_id"`
	Kind      BoostKind `json:"kind"`
	Magnitude float64   `json:"magnitude"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Currency selects which balance pays for a purchase.
type Currency string

const (
	CurrencyPrimary Currency = "primary"
	CurrencyPremium Currency = "premium"
)

// UpgradeEffect lists the stat increments one upgrade level grants.
type UpgradeEffect struct {
	PassiveAdd        float64 `json:"passive_add,omitempty" yaml:"passive_add"`
	TapAdd            int     `json:"tap_add,omitempty" yaml:"tap_add"`
	HoldMultiplierAdd float64 `json:"hold_multiplier_add,omitempty" yaml:"hold_multiplier_add"`
}

// DefaultCostGrowthFactor is the per-purchase cost multiplier.
const DefaultCostGrowthFactor = 1.6

// Upgrade is an admin-defined catalog entry merged with the player's own level.
// BaseCost is the admin price at level 0; Cost is the price of the next level.
type Upgrade struct {
	ID               string        `json:"id" yaml:"id"`
	Name             string        `json:"name" yaml:"name"`
	CostCurrency     Currency      `json:"cost_currency" yaml:"cost_currency"`
	BaseCost         float64       `json:"base_cost" yaml:"base_cost"`
	Cost             float64       `json:"cost" yaml:"cost"`
	CostGrowthFactor float64       `json:"cost_growth_factor" yaml:"cost_growth_factor"`
	Effect           UpgradeEffect `json:"effect" yaml:"effect"`
	MaxLevel         int           `json:"max_level" yaml:"max_level"`
	UnlockLevel      int           `json:"unlock_level,omitempty" yaml:"unlock_level"`
	Level            int           `json:"level" yaml:"-"`
}

// Maxed reports whether the upgrade can no longer be purchased.
func (u Upgrade) Maxed() bool { return u.Level >= u.MaxLevel }

// DealCostKind selects how a deal is paid for.
type DealCostKind string

const (
	DealCostStardust DealCostKind = "stardust"
	DealCostStars    DealCostKind = "stars"
	DealCostAd       DealCostKind = "ad"
)

// DealReward selects what a deal grants.
type DealReward string

const (
	RewardEnergyBoost        DealReward = "energy_boost"
	RewardStardustBoost      DealReward = "stardust_boost"
	RewardTapBoost           DealReward = "cpt_boost"
	RewardPassiveIncomeBoost DealReward = "passive_income_boost"
	RewardFreeUpgrade        DealReward = "free_upgrade"
)

// Deal is a time-boxed store offer.
type Deal struct {
	ID            string        `json:"id" yaml:"id"`
	Title         string        `json:"title" yaml:"title"`
	CostKind      DealCostKind  `json:"cost_kind" yaml:"cost_kind"`
	Cost          float64       `json:"cost" yaml:"cost"`
	RewardKind    DealReward    `json:"reward_kind" yaml:"reward_kind"`
	RewardValue   float64       `json:"reward_value" yaml:"reward_value"`
	BoostDuration time.Duration `json:"boost_duration,omitempty" yaml:"boost_duration"`
	Cooldown      time.Duration `json:"cooldown,omitempty" yaml:"cooldown"`
	UnlockLevel   int           `json:"unlock_level,omitempty" yaml:"unlock_level"`
}

// TaskKind selects the completion rules for a task.
type TaskKind string

const (
	TaskTelegram      TaskKind = "telegram"
	TaskYouTubeVideo  TaskKind = "youtube-video"
	TaskYouTubeShorts TaskKind = "youtube-shorts"
	TaskAdWatch       TaskKind = "ad-watch"
)

// Task is an externally defined earning task.
type Task struct {
	ID         string   `json:"id" yaml:"id"`
	Kind       TaskKind `json:"kind" yaml:"kind"`
	Title      string   `json:"title" yaml:"title"`
	Link       string   `json:"link,omitempty" yaml:"link"`
	ChannelID  string   `json:"channel_id,omitempty" yaml:"channel_id"`
	SecretCode string   `json:"secret_code,omitempty" yaml:"secret_code"`
	Reward     float64  `json:"reward" yaml:"reward"`
	DailyLimit int      `json:"daily_limit,omitempty" yaml:"daily_limit"`
	// LegacyFollow marks the task whose completion was historically stored
	// in Player.HasCompletedFollowTask.
	LegacyFollow bool `json:"legacy_follow,omitempty" yaml:"legacy_follow"`
}

// DailyRewardKind selects the currency a daily reward pays out in.
type DailyRewardKind string

const (
	DailyStardust DailyRewardKind = "stardust"
	DailyStars    DailyRewardKind = "stars"
)

// DailyReward is one entry in the cycling daily reward table.
type DailyReward struct {
	Kind   DailyRewardKind `json:"kind" yaml:"kind"`
	Amount float64         `json:"amount" yaml:"amount"`
}

// AdminConfig holds admin-tuned economy knobs.
type AdminConfig struct {
	DailyRewardMultiplier float64 `json:"daily_reward_multiplier" yaml:"daily_reward_multiplier"`
	CipherCode            string  `json:"cipher_code" yaml:"cipher_code"`
	CipherReward          float64 `json:"cipher_reward" yaml:"cipher_reward"`
	OfflineUpgradeID      string  `json:"offline_upgrade_id" yaml:"offline_upgrade_id"`
	MinWithdrawal         float64 `json:"min_withdrawal" yaml:"min_withdrawal"`
	// PayoutRate is the external payout per stardust, as a decimal string.
	PayoutRate string `json:"payout_rate" yaml:"payout_rate"`
}

// Catalogs is the resolved set of global definitions the reducer reads.
type Catalogs struct {
	Upgrades     []Upgrade     `json:"upgrades"`
	Deals        []Deal        `json:"deals"`
	Tasks        []Task        `json:"tasks"`
	DailyRewards []DailyReward `json:"daily_rewards"`
	Admin        AdminConfig   `json:"admin"`
}

// Deal returns the deal with the given id.
func (c Catalogs) Deal(id string) (Deal, bool) {
	for _, d := range c.Deals {
		if d.ID == id {
			return d, true
		}
	}
	return Deal{}, false
}

// Task returns the task with the given id.
func (c Catalogs) Task(id string) (Task, bool) {
	for _, t := range c.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// RemoteCatalogs is the loosely populated payload from the settings store.
// Nil fields mean "use built-in defaults".
type RemoteCatalogs struct {
	Upgrades     []Upgrade     `json:"upgrades,omitempty"`
	Deals        []Deal        `json:"deals,omitempty"`
	Tasks        []Task        `json:"tasks,omitempty"`
	DailyRewards []DailyReward `json:"daily_rewards,omitempty"`
	Admin        *AdminConfig  `json:"admin,omitempty"`
}
