package session

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"Stardust/internal/metrics"
	"Stardust/internal/model"
	"Stardust/internal/reducer"
)

// WatchAdFor shows an ad and dispatches a once it completes. The action is
// checked against the current state first so an ineligible player never
// sits through an ad for nothing. Returns the ad ticket.
func (m *Manager) WatchAdFor(ctx context.Context, placement string, a reducer.Action) (string, error) {
	if m.deleting.Load() {
		return "", ErrDeleting
	}
	m.mu.Lock()
	_, err := reducer.Apply(m.player, m.env(), a)
	m.mu.Unlock()
	if err != nil {
		m.rejected(a, err)
		return "", err
	}

	ticket := m.ads.Show(ctx, placement,
		func() {
			if _, err := m.Dispatch(a); err != nil {
				m.notify(placement, fmt.Sprintf("Reward not granted: %v", err))
			}
		},
		func(err error) { m.adFailed(placement, err) },
	)
	return ticket, nil
}

func (m *Manager) adFailed(placement string, err error) {
	metrics.ExternalFailures.WithLabelValues("ads").Inc()
	log.Printf("[WARN] ad for %s failed: %v", placement, err)
	m.notify(placement, "The ad could not be shown. Nothing was changed.")
}

// PurchaseDeal buys a deal. Ad-paid deals return an ad ticket and complete
// asynchronously; the rest apply immediately.
func (m *Manager) PurchaseDeal(ctx context.Context, dealID string) (string, model.Player, error) {
	deal, ok := m.catalogs.Deal(dealID)
	if ok && deal.CostKind == model.DealCostAd {
		ticket, err := m.WatchAdFor(ctx, "deal:"+dealID, reducer.PurchaseDeal{DealID: dealID})
		return ticket, m.Player(), err
	}
	p, err := m.Dispatch(reducer.PurchaseDeal{DealID: dealID})
	return "", p, err
}

// WatchLevelUpAd shows a level-up ad; the counter moves when it completes.
func (m *Manager) WatchLevelUpAd(ctx context.Context) (string, error) {
	return m.WatchAdFor(ctx, "level_up", reducer.WatchLevelUpAd{})
}

// WatchTaskAd shows an ad counted toward an ad-watch task.
func (m *Manager) WatchTaskAd(ctx context.Context, taskID string) (string, error) {
	return m.WatchAdFor(ctx, "task:"+taskID, reducer.RecordTaskAd{TaskID: taskID})
}

// VerifyTelegramTask asks the verifier whether the player joined the task's
// channel and then applies the second interaction with the answer.
func (m *Manager) VerifyTelegramTask(ctx context.Context, taskID string) (model.Player, error) {
	task, ok := m.catalogs.Task(taskID)
	if !ok {
		return m.Dispatch(reducer.VerifyTelegramTask{TaskID: taskID})
	}

	// Run the eligibility checks before spending a network call.
	m.mu.Lock()
	_, err := reducer.Apply(m.player, m.env(), reducer.VerifyTelegramTask{TaskID: taskID, Joined: true})
	id := m.player.ID
	m.mu.Unlock()
	if err != nil {
		return m.Player(), err
	}

	joined := false
	if m.verifier != nil {
		joined, err = m.verifier.VerifyChannelMembership(ctx, id, task)
		if err != nil {
			metrics.ExternalFailures.WithLabelValues("verifier").Inc()
			log.Printf("[WARN] membership check for %s/%s failed: %v", id, taskID, err)
			return m.Player(), fmt.Errorf("%w: verify membership: %v", ErrExternal, err)
		}
	}
	return m.Dispatch(reducer.VerifyTelegramTask{TaskID: taskID, Joined: joined})
}

// RequestWithdrawal creates a withdrawal with a fresh id.
func (m *Manager) RequestWithdrawal(amount float64, address string) (model.Player, error) {
	return m.Dispatch(reducer.InitiateWithdrawal{Request: model.WithdrawalRequest{
		ID:      uuid.NewString(),
		Amount:  amount,
		Address: address,
	}})
}
