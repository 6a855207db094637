package testsupport

import (
	"testing"

	"voxarchive/internal/catalog"
	"voxarchive/internal/config"
)

// MustOpenCatalog opens the catalog store configured by cfg.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg.CatalogPath())
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	return store
}

// SeedCatalog writes episodes into the catalog configured by cfg and saves
// it to disk. Each episode is upserted with its full field set.
func SeedCatalog(t testing.TB, cfg *config.Config, episodes ...catalog.Episode) *catalog.Store {
	t.Helper()

	store := MustOpenCatalog(t, cfg)
	for _, ep := range episodes {
		patch := catalog.Patch{
			Page:                            ep.Page,
			Title:                           ep.Title,
			PublishDate:                     ep.PublishDate,
			AudioLink:                       ep.AudioLink,
			FilePath:                        ep.FilePath,
			AudioMetadata:                   ep.AudioMetadata,
			TranscriptionFilePath:           ep.TranscriptionFilePath,
			TranscriptionFilePathAssemblyAI: ep.TranscriptionFilePathAssemblyAI,
		}
		if _, err := store.Upsert(ep.URL, patch); err != nil {
			t.Fatalf("seed %s: %v", ep.URL, err)
		}
	}
	if err := store.Save(); err != nil {
		t.Fatalf("save catalog: %v", err)
	}
	return store
}
