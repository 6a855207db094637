package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio"}, {CodecType: "data"}},
		Format:  Format{Duration: "3723.5", Size: "1000"},
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 3723.5 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestDurationFallsBackToStream(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", Duration: "61.25"}},
		Format:  Format{Duration: "N/A"},
	}
	if result.DurationSeconds() != 61.25 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}

func writeStub(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestInspectDecodesStubOutput(t *testing.T) {
	stub := writeStub(t, `echo '{"streams":[{"index":0,"codec_type":"audio","codec_name":"mp3"}],"format":{"duration":"1800.0","size":"4096"}}'`+"\n")
	result, err := Inspect(context.Background(), stub, "/tmp/episode.mp3")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.DurationSeconds() != 1800 || result.Streams[0].CodecName != "mp3" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestInspectReportsHint(t *testing.T) {
	stub := writeStub(t, "echo 'moov atom not found' >&2\nexit 1\n")
	_, err := Inspect(context.Background(), stub, "/tmp/episode.m4a")
	if err == nil || !strings.Contains(err.Error(), "incomplete m4a") {
		t.Fatalf("expected hinted error, got %v", err)
	}
}

func TestInspectRequiresPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
