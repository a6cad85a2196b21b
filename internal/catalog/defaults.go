package catalog

import (
	"time"

	"Stardust/internal/model"
)

// Defaults returns the built-in catalogs used for any field the remote settings omit.
func Defaults() model.Catalogs {
	return model.Catalogs{
		Upgrades:     SanitizeUpgrades(defaultUpgrades()),
		Deals:        defaultDeals(),
		Tasks:        defaultTasks(),
		DailyRewards: defaultDailyRewards(),
		Admin:        defaultAdmin(),
	}
}

func defaultUpgrades() []model.Upgrade {
	return []model.Upgrade{
		{ID: "dust_collector", Name: "Dust Collector", CostCurrency: model.CurrencyPrimary, BaseCost: 1500,
			Effect: model.UpgradeEffect{PassiveAdd: 100}, MaxLevel: 20},
		{ID: "solar_sail", Name: "Solar Sail", CostCurrency: model.CurrencyPrimary, BaseCost: 5000,
			Effect: model.UpgradeEffect{PassiveAdd: 400}, MaxLevel: 20, UnlockLevel: 3},
		{ID: "quasar_tap", Name: "Quasar Tap", CostCurrency: model.CurrencyPrimary, BaseCost: 2000,
			Effect: model.UpgradeEffect{TapAdd: 1}, MaxLevel: 15},
		{ID: "gravity_glove", Name: "Gravity Glove", CostCurrency: model.CurrencyPrimary, BaseCost: 3000,
			Effect: model.UpgradeEffect{HoldMultiplierAdd: 0.25}, MaxLevel: 10, UnlockLevel: 2},
		{ID: "dark_matter_engine", Name: "Dark Matter Engine", CostCurrency: model.CurrencyPremium, BaseCost: 25,
			Effect: model.UpgradeEffect{PassiveAdd: 2500}, MaxLevel: 5, UnlockLevel: 5},
		{ID: "autopilot", Name: "Autopilot", CostCurrency: model.CurrencyPremium, BaseCost: 50,
			MaxLevel: 1},
	}
}

func defaultDeals() []model.Deal {
	return []model.Deal{
		{ID: "energy_refill", Title: "Energy Refill", CostKind: model.DealCostAd,
			RewardKind: model.RewardEnergyBoost, RewardValue: 500, Cooldown: time.Hour},
		{ID: "stardust_cache", Title: "Stardust Cache", CostKind: model.DealCostStars, Cost: 10,
			RewardKind: model.RewardStardustBoost, RewardValue: 50_000, Cooldown: 24 * time.Hour},
		{ID: "tap_frenzy", Title: "Tap Frenzy", CostKind: model.DealCostStars, Cost: 5,
			RewardKind: model.RewardTapBoost, RewardValue: 2, BoostDuration: 30 * time.Minute, Cooldown: 6 * time.Hour},
		{ID: "nebula_flow", Title: "Nebula Flow", CostKind: model.DealCostStardust, Cost: 20_000,
			RewardKind: model.RewardPassiveIncomeBoost, RewardValue: 1000, BoostDuration: time.Hour, Cooldown: 12 * time.Hour, UnlockLevel: 2},
		{ID: "free_upgrade", Title: "Free Upgrade", CostKind: model.DealCostAd,
			RewardKind: model.RewardFreeUpgrade, Cooldown: 24 * time.Hour, UnlockLevel: 3},
	}
}

func defaultTasks() []model.Task {
	return []model.Task{
		{ID: "join_channel", Kind: model.TaskTelegram, Title: "Join the Stardust channel",
			Link: "https://t.me/stardust_news", ChannelID: "@stardust_news", Reward: 5000, LegacyFollow: true},
		{ID: "watch_trailer", Kind: model.TaskYouTubeVideo, Title: "Watch the trailer",
			Link: "https://youtube.com/watch?v=stardust", SecretCode: "NEBULA", Reward: 10_000, DailyLimit: 1},
		{ID: "watch_ads", Kind: model.TaskAdWatch, Title: "Watch 5 ads", Reward: 15_000, DailyLimit: 5},
	}
}

func defaultDailyRewards() []model.DailyReward {
	return []model.DailyReward{
		{Kind: model.DailyStardust, Amount: 500},
		{Kind: model.DailyStardust, Amount: 1000},
		{Kind: model.DailyStardust, Amount: 2500},
		{Kind: model.DailyStars, Amount: 1},
		{Kind: model.DailyStardust, Amount: 5000},
		{Kind: model.DailyStardust, Amount: 10_000},
		{Kind: model.DailyStars, Amount: 5},
	}
}

func defaultAdmin() model.AdminConfig {
	return model.AdminConfig{
		DailyRewardMultiplier: 1,
		CipherReward:          1_000_000,
		OfflineUpgradeID:      "autopilot",
		MinWithdrawal:         100_000,
		PayoutRate:            "0.000001",
	}
}
