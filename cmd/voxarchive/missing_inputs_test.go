package main

import (
	"errors"
	"testing"

	"voxarchive/internal/catalog"
	"voxarchive/internal/config"
	"voxarchive/internal/fileutil"
	"voxarchive/internal/services"
	"voxarchive/internal/testsupport"
)

func TestStagesRequireCatalog(t *testing.T) {
	for _, args := range [][]string{
		{"resolve"},
		{"download"},
		{"transcribe"},
		{"classify"},
		{"stats"},
		{"export"},
	} {
		t.Run(args[0], func(t *testing.T) {
			env := setupCLITestEnv(t, testsupport.WithBackend(config.BackendCloud))
			_, _, err := runCLI(t, args, env.configPath)
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			requireContains(t, err.Error(), "run discover first")
			if fileutil.Exists(env.cfg.CatalogPath()) {
				t.Fatal("catalog should not be created by a consuming stage")
			}
		})
	}
}

func TestExportRequiresSeriesMap(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedCatalog(t, env.cfg, catalog.Episode{URL: "https://example.com/episodes/one", Page: 1, Title: "One"})

	_, _, err := runCLI(t, []string{"export"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, err.Error(), "run classify first")
	if fileutil.Exists(env.cfg.ExportPath()) {
		t.Fatal("export should not write a CSV without a series map")
	}
}
