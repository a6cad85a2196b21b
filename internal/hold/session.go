// Package hold implements the press-and-hold earning session.
//
// The session is a small state machine:
//
//	Idle --Start--> Holding --Release/exhausted--> PendingClaim --Confirm/Discard--> Idle
//
// A release with nothing accumulated goes straight back to Idle. The reward is
// only merged into the balance by Confirm, after the ad collaborator reports completion.
package hold

import (
	"fmt"
	"time"

	"Stardust/internal/boost"
	"Stardust/internal/model"
	"Stardust/internal/reducer"
)

// Phase is the explicit state of a hold session.
type Phase int

const (
	Idle Phase = iota
	Holding
	PendingClaim
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Holding:
		return "holding"
	case PendingClaim:
		return "pending_claim"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

var (
	ErrWrongPhase = fmt.Errorf("%w: hold session in wrong phase", reducer.ErrIneligible)
	ErrNoEnergy   = fmt.Errorf("%w: no energy", reducer.ErrIneligible)
)

// Session is not safe for concurrent use; the owner serializes access.
type Session struct {
	phase       Phase
	accumulated float64
	ticks       int
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Accumulated returns the reward gathered by the current or pending hold.
func (s *Session) Accumulated() float64 { return s.accumulated }

// Ticks returns how many ticks the current or pending hold has run.
func (s *Session) Ticks() int { return s.ticks }

// Start begins a hold. The accumulated reward resets to zero.
func (s *Session) Start(p model.Player) error {
	if p.IsBanned {
		return reducer.ErrBanned
	}
	if s.phase != Idle {
		return ErrWrongPhase
	}
	if p.CurrentEnergy <= 0 {
		return ErrNoEnergy
	}
	s.phase = Holding
	s.accumulated = 0
	s.ticks = 0
	return nil
}

// Tick runs one hold tick against p. It reports true when the session ended
// because energy ran out or the player was banned mid-hold. A banned player
// earns nothing and keeps their energy.
func (s *Session) Tick(p model.Player, rules model.Rules, now time.Time) (model.Player, bool) {
	if s.phase != Holding {
		return p, false
	}
	if p.IsBanned {
		s.end()
		return p, true
	}
	tapMult := boost.EffectiveTapMultiplier(p.ActiveBoosts, now)
	s.accumulated += float64(p.EarnRatePerTap) * tapMult * rules.TickEarnFactor * p.HoldEarnMultiplier
	s.ticks++

	p.CurrentEnergy -= rules.EnergyDrainPerTick
	if p.CurrentEnergy <= 0 {
		p.CurrentEnergy = 0
		s.end()
		return p, true
	}
	return p, false
}

// Release ends the hold on user release and returns the resulting phase.
func (s *Session) Release() Phase {
	if s.phase == Holding {
		s.end()
	}
	return s.phase
}

func (s *Session) end() {
	if s.accumulated > 0 {
		s.phase = PendingClaim
		return
	}
	s.reset()
}

// Confirm merges the pending reward into the balance.
func (s *Session) Confirm(p model.Player) (model.Player, float64, error) {
	if s.phase != PendingClaim {
		return p, 0, ErrWrongPhase
	}
	reward := s.accumulated
	p.Balance += reward
	s.reset()
	return p, reward, nil
}

// Discard drops the pending reward and returns how much was lost.
func (s *Session) Discard() float64 {
	if s.phase != PendingClaim {
		return 0
	}
	lost := s.accumulated
	s.reset()
	return lost
}

func (s *Session) reset() {
	s.phase = Idle
	s.accumulated = 0
	s.ticks = 0
}
