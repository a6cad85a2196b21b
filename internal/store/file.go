package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"Stardust/internal/model"
)

// FileStore keeps one JSON file per player in a directory.
// It is the fallback backend when no SQLite path is configured.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(id string) string {
	// Player ids come from Telegram or uuid; keep them from escaping the directory.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(id)
	return filepath.Join(f.dir, safe+".json")
}

func (f *FileStore) load(id string) (*model.PlayerSnapshot, error) {
	data, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var snap model.PlayerSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return &snap, nil
}

func (f *FileStore) save(snap model.PlayerSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path(snap.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path(snap.ID))
}

func (f *FileStore) FetchPlayer(_ context.Context, id string) (*model.PlayerSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(id)
}

func (f *FileStore) PersistPlayer(_ context.Context, snap model.PlayerSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(snap)
}

func (f *FileStore) DeletePlayer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileStore) ApplyDelta(_ context.Context, d model.PlayerDelta) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap, err := f.load(d.PlayerID)
	if err != nil {
		return err
	}
	if snap == nil {
		return ErrNotFound
	}
	applyDelta(snap, d)
	return f.save(*snap)
}

func (f *FileStore) all() ([]model.PlayerSnapshot, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	out := make([]model.PlayerSnapshot, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return nil, err
		}
		var snap model.PlayerSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(m), err)
		}
		out = append(out, snap)
	}
	return out, nil
}

func (f *FileStore) Leaderboard(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snaps, err := f.all()
	if err != nil {
		return nil, err
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].Balance != snaps[j].Balance {
			return snaps[i].Balance > snaps[j].Balance
		}
		return snaps[i].ID < snaps[j].ID
	})
	var out []model.LeaderboardEntry
	for _, s := range snaps {
		if s.IsBanned {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, model.LeaderboardEntry{
			Rank:        len(out) + 1,
			PlayerID:    s.ID,
			DisplayName: s.DisplayName,
			Balance:     s.Balance,
			Level:       s.Level,
		})
	}
	return out, nil
}

func (f *FileStore) RankFor(_ context.Context, balance float64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snaps, err := f.all()
	if err != nil {
		return 0, err
	}
	rank := 1
	for _, s := range snaps {
		if !s.IsBanned && s.Balance > balance {
			rank++
		}
	}
	return rank, nil
}

func (f *FileStore) Close() error { return nil }
