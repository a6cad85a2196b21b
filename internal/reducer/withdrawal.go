package reducer

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"Stardust/internal/calculator"
	"Stardust/internal/model"
)

var (
	friendlyAddress = regexp.MustCompile(`^[A-Za-z0-9_-]{48}$`)
	rawAddress      = regexp.MustCompile(`^-?[0-9]+:[0-9a-fA-F]{64}$`)
)

// ValidAddress accepts user-friendly (48 base64url chars) and raw (wc:hex) wallet addresses.
func ValidAddress(addr string) bool {
	return friendlyAddress.MatchString(addr) || rawAddress.MatchString(addr)
}

// InitiateWithdrawal deducts the requested stardust and queues a pending payout.
type InitiateWithdrawal struct {
	Request model.WithdrawalRequest `json:"request"`
}

func (InitiateWithdrawal) Name() string { return "initiate_withdrawal" }

func (a InitiateWithdrawal) apply(p *model.Player, env Env) error {
	req := a.Request
	if rem := calculator.RemainingCooldown(p.LastWithdrawalAt, env.Rules.WithdrawalCooldown, env.Now); rem > 0 {
		return fmt.Errorf("%w (%s remaining)", ErrCooldownActive, rem.Round(time.Second))
	}
	if req.ID == "" {
		return fmt.Errorf("%w: missing withdrawal id", ErrIneligible)
	}
	if req.Amount <= 0 || req.Amount < env.Catalogs.Admin.MinWithdrawal {
		return ErrBelowMinimum
	}
	if !ValidAddress(req.Address) {
		return ErrInvalidAddress
	}
	if p.Balance < req.Amount {
		return ErrInsufficientFunds
	}

	p.Balance -= req.Amount
	w := model.Withdrawal{
		ID:        req.ID,
		Amount:    req.Amount,
		Address:   req.Address,
		Payout:    Payout(req.Amount, env.Catalogs.Admin.PayoutRate),
		Status:    model.WithdrawalPending,
		CreatedAt: env.Now,
	}
	p.WithdrawalHistory = append([]model.Withdrawal{w}, p.WithdrawalHistory...)
	p.LastWithdrawalAt = env.Now
	return nil
}

// Payout converts a stardust amount into the external currency at rate, rounded to 4 places.
func Payout(amount float64, rate string) string {
	r, err := decimal.NewFromString(rate)
	if err != nil {
		r = decimal.Zero
	}
	return decimal.NewFromFloat(amount).Mul(r).Round(4).String()
}

// SettleWithdrawal moves a pending withdrawal to paid or rejected. Admin only.
type SettleWithdrawal struct {
	WithdrawalID string                 `json:"withdrawal_id"`
	Status       model.WithdrawalStatus `json:"status"`
}

func (SettleWithdrawal) Name() string { return "settle_withdrawal" }
func (SettleWithdrawal) admin()       {}

func (a SettleWithdrawal) apply(p *model.Player, _ Env) error {
	if a.Status != model.WithdrawalPaid && a.Status != model.WithdrawalRejected {
		return fmt.Errorf("%w: invalid status %q", ErrIneligible, a.Status)
	}
	for i := range p.WithdrawalHistory {
		w := &p.WithdrawalHistory[i]
		if w.ID != a.WithdrawalID {
			continue
		}
		if w.Status != model.WithdrawalPending {
			return fmt.Errorf("%w: withdrawal already %s", ErrIneligible, w.Status)
		}
		w.Status = a.Status
		return nil
	}
	return ErrNotFound
}

// SetBanned toggles the ban flag. Admin only.
type SetBanned struct {
	Banned bool `json:"banned"`
}

func (SetBanned) Name() string { return "set_banned" }
func (SetBanned) admin()       {}

func (a SetBanned) apply(p *model.Player, _ Env) error {
	p.IsBanned = a.Banned
	return nil
}
