package reducer

import (
	"math"

	"Stardust/internal/model"
)

// PurchaseUpgrade buys the next level of an upgrade from the player's catalog.
type PurchaseUpgrade struct {
	UpgradeID string `json:"upgrade_id"`
}

func (PurchaseUpgrade) Name() string { return "purchase_upgrade" }

func (a PurchaseUpgrade) apply(p *model.Player, env Env) error {
	idx := p.UpgradeIndex(a.UpgradeID)
	if idx < 0 {
		return ErrNotFound
	}
	u := p.Upgrades[idx]
	if err := purchasable(p, u); err != nil {
		return err
	}
	switch u.CostCurrency {
	case model.CurrencyPremium:
		if float64(p.Stars) < u.Cost {
			return ErrInsufficientFunds
		}
		p.Stars -= int(u.Cost)
	default:
		if p.Balance < u.Cost {
			return ErrInsufficientFunds
		}
		p.Balance -= u.Cost
	}
	levelUpgrade(p, idx, env.Catalogs.Admin)
	return nil
}

func purchasable(p *model.Player, u model.Upgrade) error {
	if u.Maxed() {
		return ErrMaxLevel
	}
	if u.UnlockLevel > p.Level {
		return ErrLocked
	}
	return nil
}

// levelUpgrade applies one level of upgrade idx without charging for it.
func levelUpgrade(p *model.Player, idx int, admin model.AdminConfig) {
	u := &p.Upgrades[idx]
	p.PassiveIncomePerHour += u.Effect.PassiveAdd
	p.EarnRatePerTap += u.Effect.TapAdd
	p.HoldEarnMultiplier += u.Effect.HoldMultiplierAdd
	u.Level++
	u.Cost = NextCost(u.Cost, u.CostGrowthFactor)
	if admin.OfflineUpgradeID != "" && u.ID == admin.OfflineUpgradeID {
		p.HasOfflineEarningsUnlocked = true
	}
}

// NextCost escalates a price by growth, flooring the result.
func NextCost(cost, growth float64) float64 {
	if growth <= 0 {
		growth = model.DefaultCostGrowthFactor
	}
	return math.Floor(cost * growth)
}

// CostAtLevel replays the escalation from the base price level times.
func CostAtLevel(base, growth float64, level int) float64 {
	cost := base
	for i := 0; i < level; i++ {
		cost = NextCost(cost, growth)
	}
	return cost
}

// cheapestPurchasable picks the lowest-cost upgrade the player could buy now.
// Ties go to the earlier catalog entry.
func cheapestPurchasable(p *model.Player) int {
	best := -1
	for i, u := range p.Upgrades {
		if purchasable(p, u) != nil {
			continue
		}
		if best < 0 || u.Cost < p.Upgrades[best].Cost {
			best = i
		}
	}
	return best
}
