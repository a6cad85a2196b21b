// Package store persists player snapshots and serves the read-only leaderboard.
package store

import (
	"context"
	"errors"

	"Stardust/internal/model"
)

// ErrNotFound is returned by operations that require an existing row.
var ErrNotFound = errors.New("player not found")

// Store is the remote persistence contract. FetchPlayer returns (nil, nil)
// when the player has never been saved. PersistPlayer is a full-row upsert.
type Store interface {
	FetchPlayer(ctx context.Context, id string) (*model.PlayerSnapshot, error)
	PersistPlayer(ctx context.Context, snap model.PlayerSnapshot) error
	DeletePlayer(ctx context.Context, id string) error
	ApplyDelta(ctx context.Context, d model.PlayerDelta) error
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	RankFor(ctx context.Context, balance float64) (int, error)
	Close() error
}

// applyDelta updates the server-authoritative row fields of snap.
func applyDelta(snap *model.PlayerSnapshot, d model.PlayerDelta) {
	if d.ReferralCount != nil {
		snap.ReferralCount = *d.ReferralCount
	}
	if d.Stars != nil {
		snap.Stars = *d.Stars
	}
	if d.Level != nil {
		snap.Level = *d.Level
	}
	if d.IsBanned != nil {
		snap.IsBanned = *d.IsBanned
	}
}
