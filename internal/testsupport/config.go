package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"voxarchive/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Credentials are inlined so no key files are consulted.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.AudioDir = filepath.Join(base, "data", "catalog")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Site.RetryDelay = 0
	cfgVal.Site.PageDelay = 0
	cfgVal.Audio.ResolveDelay = 0
	cfgVal.Audio.DownloadDelay = 0
	cfgVal.Transcription.HFToken = "test"
	cfgVal.Transcription.AssemblyAIAPIKey = "test"
	cfgVal.LLM.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithSiteOrigin points discovery and resolution at origin, typically an
// httptest server URL.
func WithSiteOrigin(origin string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Site.Origin = origin
		b.cfg.Site.BaseURLs = []string{origin + "/episodes"}
		b.cfg.Site.MaxPages = 3
	}
}

// WithBackend selects the transcription backend.
func WithBackend(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.Backend = name
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffprobe and uvx are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe", "uvx"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
