package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"Stardust/internal/catalog"
	"Stardust/internal/config"
	"Stardust/internal/model"
	"Stardust/internal/recorder"
	"Stardust/internal/store"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// openStore returns the configured player store. The SQLite store doubles as
// a catalog source, so it is returned separately when in use.
func openStore(cfg *config.Config) (store.Store, *store.SQLiteStore, error) {
	if cfg.Database.Backend == "file" {
		fs, err := store.NewFileStore(cfg.Database.SnapshotDir)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[INFO] store: json files in %s", cfg.Database.SnapshotDir)
		return fs, nil, nil
	}
	if err := ensureDir(cfg.Database.SQLitePath); err != nil {
		return nil, nil, err
	}
	ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[INFO] store: sqlite %s", cfg.Database.SQLitePath)
	return ss, ss, nil
}

func openJournal(cfg *config.Config) recorder.Recorder {
	if cfg.Database.JournalPath == "" {
		return recorder.NewNoopRecorder()
	}
	if err := ensureDir(cfg.Database.JournalPath); err != nil {
		log.Printf("[WARN] create journal dir failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.JournalPath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

// loadCatalogs tries the remote settings endpoint, then the local settings
// table, then the built-in defaults.
func loadCatalogs(ctx context.Context, cfg *config.Config, settings *store.SQLiteStore) model.Catalogs {
	var fetchers []catalog.Fetcher
	if cfg.Catalog.URL != "" {
		fetchers = append(fetchers, catalog.NewHTTPFetcher(cfg.Catalog.URL, cfg.Catalog.APIKey, cfg.Proxy))
	}
	if settings != nil {
		fetchers = append(fetchers, settings)
	}
	return catalog.Load(ctx, fetchers...)
}
