package assemblyai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(context.Context, time.Duration) error { return nil }

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ep.mp3")
	if err := os.WriteFile(path, []byte("ID3-audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestTranscribeUploadsSubmitsAndPolls(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "key" {
			t.Errorf("missing authorization header")
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "ID3-audio" {
			t.Errorf("unexpected upload body %q", body)
		}
		_, _ = w.Write([]byte(`{"upload_url":"https://cdn.example/up/1"}`))
	})
	mux.HandleFunc("POST /v2/transcript", func(w http.ResponseWriter, r *http.Request) {
		var req transcriptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.AudioURL != "https://cdn.example/up/1" || !req.SpeakerLabels || req.LanguageCode != "en" || !req.Punctuate || !req.FormatText {
			t.Errorf("unexpected request %+v", req)
		}
		_, _ = w.Write([]byte(`{"id":"tx1","status":"queued"}`))
	})
	mux.HandleFunc("GET /v2/transcript/tx1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			_, _ = w.Write([]byte(`{"id":"tx1","status":"processing"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"tx1","status":"completed","text":"Hi there.","utterances":[{"speaker":"A","text":"Hi there.","start":1000,"end":2500}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL + "/"}, WithSleeper(noSleep))
	tx, err := client.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if polls.Load() != 3 {
		t.Fatalf("expected 3 polls, got %d", polls.Load())
	}
	if len(tx.Utterances) != 1 || tx.Utterances[0].Speaker != "A" || tx.Utterances[0].End != 2500 {
		t.Fatalf("unexpected utterances %+v", tx.Utterances)
	}
}

func TestWaitReportsTranscriptError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"bad","status":"error","error":"audio too short"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL}, WithSleeper(noSleep), WithHTTPClient(server.Client()))
	tx, err := client.Wait(context.Background(), "bad")
	if err == nil || !strings.Contains(err.Error(), "audio too short") {
		t.Fatalf("expected transcript error, got %v", err)
	}
	if tx.Status != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, tx.Status)
	}
}

func TestUploadStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Authentication error"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	_, err := client.Upload(context.Background(), writeAudio(t))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
}

func TestWaitStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","status":"processing"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(Config{APIKey: "key", BaseURL: server.URL}, WithSleeper(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))
	if _, err := client.Wait(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.Submit(context.Background(), "https://x"); err == nil {
		t.Fatal("expected missing key error")
	}
}
