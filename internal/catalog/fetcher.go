// Package catalog resolves the global definitions (upgrades, deals, tasks,
// daily rewards, admin knobs) from a remote source with built-in fallbacks.
package catalog

import (
	"context"
	"log"

	"Stardust/internal/model"
)

// Fetcher loads the loosely populated remote catalogs.
type Fetcher interface {
	FetchCatalogs(ctx context.Context) (model.RemoteCatalogs, error)
	Name() string
}

// Load tries each fetcher in order and resolves the first successful payload.
// When every fetcher fails the built-in defaults are returned.
func Load(ctx context.Context, fetchers ...Fetcher) model.Catalogs {
	for _, f := range fetchers {
		if f == nil {
			continue
		}
		remote, err := f.FetchCatalogs(ctx)
		if err != nil {
			log.Printf("[WARN] catalog fetch from %s failed: %v, trying next source", f.Name(), err)
			continue
		}
		log.Printf("[INFO] catalogs loaded from %s", f.Name())
		return Resolve(remote)
	}
	log.Printf("[WARN] no catalog source available, using built-in defaults")
	return Defaults()
}

// StaticFetcher returns a fixed payload. Used for development and tests.
type StaticFetcher struct {
	Catalogs model.RemoteCatalogs
	Err      error
}

func (s *StaticFetcher) Name() string { return "static" }

func (s *StaticFetcher) FetchCatalogs(_ context.Context) (model.RemoteCatalogs, error) {
	return s.Catalogs, s.Err
}
