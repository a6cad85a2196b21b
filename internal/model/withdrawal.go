package model

import "time"

// WithdrawalStatus is the only mutable part of a Withdrawal.
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalPaid     WithdrawalStatus = "paid"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

// Withdrawal is a request to pay stardust out to an external address.
type Withdrawal struct {
	ID        string           `json:"id"`
	Amount    float64          `json:"amount"`
	Address   string           `json:"address"`
	Payout    string           `json:"payout"`
	Status    WithdrawalStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// WithdrawalRequest is the user input for a new withdrawal.
type WithdrawalRequest struct {
	ID      string  `json:"id"`
	Amount  float64 `json:"amount"`
	Address string  `json:"address"`
}
