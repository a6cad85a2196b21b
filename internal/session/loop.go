package session

import (
	"context"
	"fmt"
	"log"

	"Stardust/internal/metrics"
	"Stardust/internal/model"
	"Stardust/internal/reconcile"
	"Stardust/internal/recorder"
	"Stardust/internal/simulation"
)

// Tick runs one step of the update loop using the true elapsed time.
func (m *Manager) Tick() {
	if m.deleting.Load() {
		return
	}
	m.mu.Lock()
	m.player = simulation.Step(m.player, m.rules, m.clock.Now(), m.paused)
	m.mu.Unlock()
	m.observe()
}

// CheckDayRollover clears the daily cipher flag after UTC midnight.
func (m *Manager) CheckDayRollover() bool {
	m.mu.Lock()
	p, reset := reconcile.ResetCipherIfNewDay(m.player, m.clock.Now())
	m.player = p
	m.mu.Unlock()
	if reset {
		log.Printf("[INFO] player %s: new UTC day, cipher reset", p.ID)
		m.schedulePersist()
	}
	return reset
}

// PersistNow writes a full snapshot. The deleting guard is checked under
// storeMu together with the store call so a late save cannot resurrect a
// deleted row.
func (m *Manager) PersistNow(ctx context.Context, trigger string) error {
	m.mu.Lock()
	snap, err := m.player.Snapshot()
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	m.storeMu.Lock()
	defer m.storeMu.Unlock()
	if m.deleting.Load() {
		metrics.PersistsSuppressed.Inc()
		return ErrDeleting
	}
	if err := m.store.PersistPlayer(ctx, snap); err != nil {
		metrics.Persists.WithLabelValues(trigger, "error").Inc()
		metrics.ExternalFailures.WithLabelValues("store").Inc()
		return fmt.Errorf("%w: persist: %v", ErrExternal, err)
	}
	metrics.Persists.WithLabelValues(trigger, "ok").Inc()
	return nil
}

// PersistPeriodic is the fixed-interval save. Failures are logged only; the
// next run retries with the then-current state.
func (m *Manager) PersistPeriodic() {
	if err := m.PersistNow(m.ctx, "periodic"); err != nil && m.ctx.Err() == nil && !m.deleting.Load() {
		log.Printf("[ERROR] periodic persist failed: %v", err)
	}
}

func (m *Manager) schedulePersist() {
	m.persist(func() {
		if m.ctx.Err() != nil {
			return
		}
		if err := m.PersistNow(m.ctx, "on_demand"); err != nil && !m.deleting.Load() {
			log.Printf("[ERROR] on-demand persist failed: %v", err)
		}
	})
}

// BeginDeletion raises the deleting guard, waits out any in-flight save, then
// removes the remote row. The guard stays raised even when the delete fails.
func (m *Manager) BeginDeletion(ctx context.Context) error {
	m.storeMu.Lock()
	m.deleting.Store(true)
	m.storeMu.Unlock()
	m.stopHold()

	id := m.Player().ID
	if err := m.store.DeletePlayer(ctx, id); err != nil {
		metrics.ExternalFailures.WithLabelValues("store").Inc()
		return fmt.Errorf("%w: delete player: %v", ErrExternal, err)
	}
	log.Printf("[INFO] player %s deleted", id)
	return nil
}

// Deleting reports whether account deletion has started.
func (m *Manager) Deleting() bool {
	return m.deleting.Load()
}

// Leaderboard is a read-only pass-through for display.
func (m *Manager) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	entries, err := m.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: leaderboard: %v", ErrExternal, err)
	}
	return entries, nil
}

// Rank returns the player's position by current balance.
func (m *Manager) Rank(ctx context.Context) (int, error) {
	rank, err := m.store.RankFor(ctx, m.Player().Balance)
	if err != nil {
		return 0, fmt.Errorf("%w: rank: %v", ErrExternal, err)
	}
	return rank, nil
}

// History returns the newest journal entries for the player.
func (m *Manager) History(limit int) ([]recorder.ActionEvent, error) {
	return m.journal.RecentActions(m.Player().ID, limit)
}
