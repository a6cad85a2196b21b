// Package recorder keeps an append-only journal of what happened to players.
// The journal is for analysis and support; the game never reads state back from it.
package recorder

import "time"

// ActionEvent records a successful significant reducer action.
type ActionEvent struct {
	PlayerID      string
	Action        string
	BalanceBefore float64
	BalanceAfter  float64
	StarsBefore   int
	StarsAfter    int
	Level         int
	Note          string
	At            time.Time
}

// ClaimEvent records a two-phase claim (hold reward or offline income) being
// confirmed or discarded.
type ClaimEvent struct {
	PlayerID  string
	Source    string // "hold" or "offline"
	Amount    float64
	Confirmed bool
	At        time.Time
}

// WithdrawalEvent records a withdrawal entering or leaving the pending state.
type WithdrawalEvent struct {
	PlayerID     string
	WithdrawalID string
	Amount       float64
	Payout       string
	Address      string
	Status       string
	At           time.Time
}

// Recorder persists journal events.
type Recorder interface {
	RecordAction(evt *ActionEvent) error
	RecordClaim(evt *ClaimEvent) error
	RecordWithdrawal(evt *WithdrawalEvent) error
	RecentActions(playerID string, limit int) ([]ActionEvent, error)
	Close() error
}
