package reducer

import (
	"errors"
	"fmt"
)

// Reducer failures. Every specific reason wraps ErrIneligible.
var (
	ErrIneligible = errors.New("ineligible")
	ErrNotFound   = errors.New("not found")
	ErrBanned     = errors.New("player is banned")

	ErrInsufficientFunds = fmt.Errorf("%w: insufficient balance", ErrIneligible)
	ErrCooldownActive    = fmt.Errorf("%w: cooldown active", ErrIneligible)
	ErrMaxLevel          = fmt.Errorf("%w: max level reached", ErrIneligible)
	ErrLocked            = fmt.Errorf("%w: player level too low", ErrIneligible)
	ErrAlreadyClaimed    = fmt.Errorf("%w: already claimed", ErrIneligible)
	ErrInvalidAddress    = fmt.Errorf("%w: invalid address format", ErrIneligible)
	ErrBelowMinimum      = fmt.Errorf("%w: amount below minimum", ErrIneligible)
	ErrCodeMismatch      = fmt.Errorf("%w: code does not match", ErrIneligible)
	ErrNotJoined         = fmt.Errorf("%w: channel membership not confirmed", ErrIneligible)
	ErrNotPending        = fmt.Errorf("%w: task was not opened", ErrIneligible)
	ErrTaskComplete      = fmt.Errorf("%w: task already completed", ErrIneligible)
	ErrWrongKind         = fmt.Errorf("%w: action does not apply to this task", ErrIneligible)
	ErrNothingToUpgrade  = fmt.Errorf("%w: no purchasable upgrade", ErrIneligible)
)
