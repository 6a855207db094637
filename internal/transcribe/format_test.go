package transcribe

import (
	"strings"
	"testing"
	"time"
)

func TestFormatWritesHeaderAndUtterances(t *testing.T) {
	generated := time.Date(2025, 6, 2, 14, 5, 9, 0, time.UTC)
	got := Format(Document{
		Title:     "Why We Doubt",
		AudioPath: "/data/catalog/why-we-doubt.mp3",
		Engine:    "WhisperX",
		Generated: generated,
		Result: Result{
			Utterances: []Utterance{
				{Start: 1500 * time.Millisecond, End: 65 * time.Second, Speaker: "SPEAKER_00", Text: " Welcome back. "},
				{Start: 65 * time.Second, End: 61*time.Minute + 2*time.Second, Speaker: "", Text: "Thanks."},
				{Start: 0, End: time.Second, Speaker: "B", Text: "Hi."},
			},
			FullText: "Welcome back. Thanks. Hi.",
		},
	})
	want := strings.Join([]string{
		"# Transcription: Why We Doubt",
		"# Generated: 2025-06-02 14:05:09",
		"# Audio file: why-we-doubt.mp3",
		"# Service: WhisperX",
		"",
		"# Speaker-labeled Transcription",
		"",
		"[00:01 - 01:05] SPEAKER_00: Welcome back.",
		"[01:05 - 61:02] UNKNOWN: Thanks.",
		"[00:00 - 00:01] SPEAKER_B: Hi.",
		"",
		"# Full Transcription (without speaker labels)",
		"",
		"Welcome back. Thanks. Hi.",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected transcript:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatOmitsFullTextWhenAbsent(t *testing.T) {
	got := Format(Document{Engine: "AssemblyAI", AudioPath: "a.mp3", Result: Result{
		Utterances: []Utterance{{Speaker: "A", Text: "Hello"}},
	}})
	if strings.Contains(got, "Full Transcription") {
		t.Fatalf("unexpected full text section:\n%s", got)
	}
	if !strings.Contains(got, "# Transcription: Unknown\n") {
		t.Fatalf("expected placeholder title:\n%s", got)
	}
}

func TestNormalizeSpeaker(t *testing.T) {
	cases := map[string]string{
		"":           "UNKNOWN",
		"unknown":    "UNKNOWN",
		"A":          "SPEAKER_A",
		"SPEAKER_01": "SPEAKER_01",
		" 2 ":        "SPEAKER_2",
	}
	for in, want := range cases {
		if got := NormalizeSpeaker(in); got != want {
			t.Errorf("NormalizeSpeaker(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBackendPaths(t *testing.T) {
	if got := Local.TranscriptPath("/c/ep-1.mp3"); got != "/c/ep-1.txt" {
		t.Fatalf("local path %q", got)
	}
	if got := Cloud.TranscriptPath("/c/ep-1.m4a"); got != "/c/ep-1-assemblyai.txt" {
		t.Fatalf("cloud path %q", got)
	}
	if p := Cloud.Patch("x"); p.TranscriptionFilePathAssemblyAI != "x" || p.TranscriptionFilePath != "" {
		t.Fatalf("cloud patch %+v", p)
	}
	if _, err := BackendFor("Cloud"); err != nil {
		t.Fatalf("BackendFor: %v", err)
	}
	if _, err := BackendFor("gpu"); err == nil {
		t.Fatal("expected unknown backend error")
	}
}
