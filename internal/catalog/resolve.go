package catalog

import (
	"strings"

	"github.com/samber/lo"

	"Stardust/internal/model"
)

// Resolve fills every absent field of remote from the built-in defaults and
// sanitizes what remains.
func Resolve(remote model.RemoteCatalogs) model.Catalogs {
	def := Defaults()
	out := def
	if remote.Upgrades != nil {
		out.Upgrades = SanitizeUpgrades(remote.Upgrades)
	}
	if remote.Deals != nil {
		out.Deals = sanitizeDeals(remote.Deals)
	}
	if remote.Tasks != nil {
		out.Tasks = lo.Filter(remote.Tasks, func(t model.Task, _ int) bool { return t.ID != "" })
	}
	if len(remote.DailyRewards) > 0 {
		out.DailyRewards = remote.DailyRewards
	}
	if remote.Admin != nil {
		out.Admin = mergeAdmin(def.Admin, *remote.Admin)
	}
	return out
}

// SanitizeUpgrades drops entries without an id, de-duplicates ids (first wins)
// and repairs impossible numbers.
func SanitizeUpgrades(in []model.Upgrade) []model.Upgrade {
	valid := lo.Filter(in, func(u model.Upgrade, _ int) bool { return strings.TrimSpace(u.ID) != "" })
	valid = lo.UniqBy(valid, func(u model.Upgrade) string { return u.ID })
	return lo.Map(valid, func(u model.Upgrade, _ int) model.Upgrade {
		if u.BaseCost <= 0 {
			u.BaseCost = max(u.Cost, 0)
		}
		if u.Cost <= 0 {
			u.Cost = u.BaseCost
		}
		if u.CostGrowthFactor <= 1 {
			u.CostGrowthFactor = model.DefaultCostGrowthFactor
		}
		if u.MaxLevel < 1 {
			u.MaxLevel = 1
		}
		if u.CostCurrency == "" {
			u.CostCurrency = model.CurrencyPrimary
		}
		u.Level = 0
		return u
	})
}

func sanitizeDeals(in []model.Deal) []model.Deal {
	valid := lo.Filter(in, func(d model.Deal, _ int) bool { return d.ID != "" && d.Cost >= 0 })
	return lo.UniqBy(valid, func(d model.Deal) string { return d.ID })
}

func mergeAdmin(def, remote model.AdminConfig) model.AdminConfig {
	out := remote
	if out.DailyRewardMultiplier <= 0 {
		out.DailyRewardMultiplier = def.DailyRewardMultiplier
	}
	if out.CipherReward <= 0 {
		out.CipherReward = def.CipherReward
	}
	if out.OfflineUpgradeID == "" {
		out.OfflineUpgradeID = def.OfflineUpgradeID
	}
	if out.MinWithdrawal <= 0 {
		out.MinWithdrawal = def.MinWithdrawal
	}
	if out.PayoutRate == "" {
		out.PayoutRate = def.PayoutRate
	}
	return out
}
