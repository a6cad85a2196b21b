package reducer

import (
	"fmt"
	"time"

	"Stardust/internal/boost"
	"Stardust/internal/calculator"
	"Stardust/internal/model"
)

// PurchaseDeal buys a store offer. Ad-paid deals are only dispatched after the
// ad collaborator reports completion, so they carry no currency check here.
type PurchaseDeal struct {
	DealID string `json:"deal_id"`
}

func (PurchaseDeal) Name() string { return "purchase_deal" }

func (a PurchaseDeal) apply(p *model.Player, env Env) error {
	deal, ok := env.Catalogs.Deal(a.DealID)
	if !ok {
		return ErrNotFound
	}
	if deal.UnlockLevel > p.Level {
		return ErrLocked
	}
	if deal.Cooldown > 0 {
		if rem := calculator.RemainingCooldown(p.LastDealPurchaseAtByID[deal.ID], deal.Cooldown, env.Now); rem > 0 {
			return fmt.Errorf("%w (%s remaining)", ErrCooldownActive, rem.Round(time.Second))
		}
	}

	freeIdx := -1
	if deal.RewardKind == model.RewardFreeUpgrade {
		if freeIdx = cheapestPurchasable(p); freeIdx < 0 {
			return ErrNothingToUpgrade
		}
	}

	switch deal.CostKind {
	case model.DealCostStars:
		if float64(p.Stars) < deal.Cost {
			return ErrInsufficientFunds
		}
		p.Stars -= int(deal.Cost)
	case model.DealCostAd:
	default:
		if p.Balance < deal.Cost {
			return ErrInsufficientFunds
		}
		p.Balance -= deal.Cost
	}

	switch deal.RewardKind {
	case model.RewardEnergyBoost:
		p.CurrentEnergy = calculator.ClampEnergy(p.CurrentEnergy+deal.RewardValue, p.MaxEnergy)
		p.LastEnergyBoostClaimedAt = env.Now
	case model.RewardStardustBoost:
		p.Balance += deal.RewardValue
	case model.RewardTapBoost:
		p.ActiveBoosts = boost.Upsert(boost.PruneExpired(p.ActiveBoosts, env.Now),
			newBoost(deal, model.BoostTapMultiplier, env))
	case model.RewardPassiveIncomeBoost:
		p.ActiveBoosts = boost.Upsert(boost.PruneExpired(p.ActiveBoosts, env.Now),
			newBoost(deal, model.BoostPassiveAddend, env))
	case model.RewardFreeUpgrade:
		levelUpgrade(p, freeIdx, env.Catalogs.Admin)
	default:
		return fmt.Errorf("%w: unknown reward %q", ErrNotFound, deal.RewardKind)
	}

	if deal.Cooldown > 0 {
		if p.LastDealPurchaseAtByID == nil {
			p.LastDealPurchaseAtByID = map[string]time.Time{}
		}
		p.LastDealPurchaseAtByID[deal.ID] = env.Now
	}
	return nil
}

func newBoost(deal model.Deal, kind model.BoostKind, env Env) model.Boost {
	ttl := deal.BoostDuration
	if ttl <= 0 {
		ttl = env.Rules.DefaultBoostTTL
	}
	return model.Boost{
		SourceID:  deal.ID,
		Kind:      kind,
		Magnitude: deal.RewardValue,
		ExpiresAt: env.Now.Add(ttl),
	}
}
