package session

import (
	"context"
	"log"
	"time"

	"Stardust/internal/hold"
	"Stardust/internal/metrics"
	"Stardust/internal/recorder"
	"Stardust/internal/reducer"
)

// StartHold begins a hold session and, unless ManualHold is set, its ticker.
func (m *Manager) StartHold() error {
	if m.deleting.Load() {
		return ErrDeleting
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hold.Start(m.player); err != nil {
		return err
	}
	if m.manualHold {
		return nil
	}
	stop := make(chan struct{})
	m.holdStop = stop
	m.wg.Add(1)
	go m.runHold(stop, m.rules.HoldTick)
	return nil
}

func (m *Manager) runHold(stop <-chan struct{}, every time.Duration) {
	defer m.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-m.ctx.Done():
			return
		case <-t.C:
			if !m.HoldTick() {
				return
			}
		}
	}
}

// HoldTick runs one hold tick. It reports whether the hold is still running.
func (m *Manager) HoldTick() bool {
	m.mu.Lock()
	p, ended := m.hold.Tick(m.player, m.rules, m.clock.Now())
	m.player = p
	holding := m.hold.Phase() == hold.Holding
	if ended {
		m.holdStop = nil
	}
	m.mu.Unlock()
	if ended {
		m.observe()
	}
	return holding
}

// ReleaseHold ends the hold on user release.
func (m *Manager) ReleaseHold() hold.Phase {
	m.stopHold()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hold.Release()
}

func (m *Manager) stopHold() {
	m.mu.Lock()
	stop := m.holdStop
	m.holdStop = nil
	m.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

// HoldState returns the phase and the reward gathered so far.
func (m *Manager) HoldState() (hold.Phase, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hold.Phase(), m.hold.Accumulated()
}

// ClaimHoldWithAd shows an ad and merges the pending hold reward when it
// completes. On ad failure the reward stays pending.
func (m *Manager) ClaimHoldWithAd(ctx context.Context) (string, error) {
	m.mu.Lock()
	phase := m.hold.Phase()
	m.mu.Unlock()
	if phase != hold.PendingClaim {
		return "", hold.ErrWrongPhase
	}
	ticket := m.ads.Show(ctx, "hold_claim",
		func() {
			if _, err := m.ConfirmHold(); err != nil {
				log.Printf("[WARN] confirm hold after ad: %v", err)
			}
		},
		func(err error) { m.adFailed("hold_claim", err) },
	)
	return ticket, nil
}

// ConfirmHold merges the pending reward into the balance.
func (m *Manager) ConfirmHold() (float64, error) {
	m.mu.Lock()
	if m.player.IsBanned {
		m.mu.Unlock()
		return 0, reducer.ErrBanned
	}
	p, reward, err := m.hold.Confirm(m.player)
	if err == nil {
		m.player = p
	}
	id := m.player.ID
	m.mu.Unlock()
	if err != nil {
		return 0, err
	}
	metrics.HoldRewards.WithLabelValues("confirmed").Add(reward)
	m.recordClaim(id, "hold", reward, true)
	m.observe()
	m.schedulePersist()
	return reward, nil
}

// DiscardHold drops the pending reward.
func (m *Manager) DiscardHold() float64 {
	m.mu.Lock()
	lost := m.hold.Discard()
	id := m.player.ID
	m.mu.Unlock()
	if lost > 0 {
		metrics.HoldRewards.WithLabelValues("discarded").Add(lost)
		m.recordClaim(id, "hold", lost, false)
	}
	return lost
}

// PendingOffline returns the unclaimed offline income.
func (m *Manager) PendingOffline() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offline
}

// ClaimOffline merges the offline income surfaced at load.
func (m *Manager) ClaimOffline() (float64, error) {
	if m.deleting.Load() {
		return 0, ErrDeleting
	}
	m.mu.Lock()
	if m.player.IsBanned {
		m.mu.Unlock()
		return 0, reducer.ErrBanned
	}
	amount := m.offline
	if amount <= 0 {
		m.mu.Unlock()
		return 0, ErrNoOfflineIncome
	}
	m.player.Balance += amount
	m.offline = 0
	id := m.player.ID
	m.mu.Unlock()

	metrics.OfflineIncome.WithLabelValues("claimed").Add(amount)
	m.recordClaim(id, "offline", amount, true)
	m.observe()
	m.schedulePersist()
	return amount, nil
}

// DiscardOffline drops the offline income.
func (m *Manager) DiscardOffline() float64 {
	m.mu.Lock()
	amount := m.offline
	m.offline = 0
	id := m.player.ID
	m.mu.Unlock()
	if amount > 0 {
		metrics.OfflineIncome.WithLabelValues("discarded").Add(amount)
		m.recordClaim(id, "offline", amount, false)
	}
	return amount
}

func (m *Manager) recordClaim(playerID, source string, amount float64, confirmed bool) {
	err := m.journal.RecordClaim(&recorder.ClaimEvent{
		PlayerID:  playerID,
		Source:    source,
		Amount:    amount,
		Confirmed: confirmed,
		At:        m.clock.Now(),
	})
	if err != nil {
		log.Printf("[WARN] journal %s claim: %v", source, err)
	}
}
