package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestTranscribeLoadsDiarizedSegments(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "episode-12.mp3")
	outDir := filepath.Join(dir, "work")

	svc := NewService(Config{HFToken: "hf_test"})
	var gotName string
	var gotArgs []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		body := `{"segments":[{"text":" Welcome back. ","start":0.5,"end":3.2,"speaker":"SPEAKER_00"},{"text":"Thanks.","start":3.4,"end":4.0}]}`
		return os.WriteFile(filepath.Join(outDir, "episode-12.json"), []byte(body), 0o644)
	})

	result, err := svc.Transcribe(context.Background(), audio, outDir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotName != UVXCommand {
		t.Fatalf("expected %s, got %s", UVXCommand, gotName)
	}
	for _, want := range []string{"whisperx", audio, "--diarize", "--hf_token", "hf_test", "--output_format", "json", "--language", "en", "--device", "cpu"} {
		if !slices.Contains(gotArgs, want) {
			t.Fatalf("args missing %q: %v", want, gotArgs)
		}
	}
	if len(result.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(result.Segments))
	}
	if result.Segments[0].Speaker != "SPEAKER_00" || result.Segments[1].Speaker != "" {
		t.Fatalf("unexpected speakers: %+v", result.Segments)
	}
	if result.Text != "Welcome back. Thanks." {
		t.Fatalf("unexpected text %q", result.Text)
	}
}

func TestTranscribeRequiresToken(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		t.Fatal("runner should not be called")
		return nil
	})
	if _, err := svc.Transcribe(context.Background(), "/tmp/a.mp3", t.TempDir()); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestTranscribePropagatesRunnerFailure(t *testing.T) {
	svc := NewService(Config{HFToken: "x"})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	_, err := svc.Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.mp3"), t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "exit status 1") {
		t.Fatalf("expected runner error, got %v", err)
	}
}

func TestBuildArgsCUDA(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true, HFToken: "x", Model: "medium"})
	args := svc.buildArgs("/a.mp3", "/out")
	if args[0] != "--index-url" || args[1] != CUDAIndexURL {
		t.Fatalf("expected CUDA index first: %v", args)
	}
	if !slices.Contains(args, CUDADevice) || slices.Contains(args, CPUComputeType) {
		t.Fatalf("unexpected device args: %v", args)
	}
	if i := slices.Index(args, "--model"); i < 0 || args[i+1] != "medium" {
		t.Fatalf("model not passed: %v", args)
	}
}
