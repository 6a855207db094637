package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"voxarchive/internal/catalog"
	"voxarchive/internal/testsupport"
)

func TestStatusCountsPendingWork(t *testing.T) {
	env := setupCLITestEnv(t)
	audio := filepath.Join(env.cfg.Paths.AudioDir, "downloaded.mp3")
	testsupport.WriteFile(t, audio, 2048)
	testsupport.SeedCatalog(t, env.cfg,
		catalog.Episode{URL: "https://example.com/episodes/new", Page: 1, Title: "New"},
		catalog.Episode{URL: "https://example.com/episodes/linked", Page: 1, Title: "Linked", PublishDate: "2024-02-01", AudioLink: "/a/linked.mp3"},
		catalog.Episode{URL: "https://example.com/episodes/downloaded", Page: 2, Title: "Downloaded", PublishDate: "2024-01-01", AudioLink: "/a/downloaded.mp3", FilePath: audio},
	)

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status catalogStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if status.Episodes != 3 || status.Backend != "local" {
		t.Fatalf("unexpected status %+v", status)
	}
	want := map[string][2]int{
		"discover (dated)":   {2, 1},
		"resolve":            {2, 1},
		"download":           {1, 1},
		"transcribe (local)": {0, 1},
		"classify":           {0, 0},
	}
	for _, s := range status.Stages {
		expected, ok := want[s.Stage]
		if !ok {
			t.Fatalf("unexpected stage %q", s.Stage)
		}
		if s.Done != expected[0] || s.Pending != expected[1] {
			t.Fatalf("stage %s: done=%d pending=%d, want %v", s.Stage, s.Done, s.Pending, expected)
		}
	}
}
