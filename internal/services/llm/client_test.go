package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(context.Context, time.Duration) error { return nil }

func writeContent(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	payload := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestCompleteJSONSendsJSONMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "demo" || req.ResponseFormat["type"] != "json_object" || len(req.Messages) != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		writeContent(t, w, `{"series_name":"INDEPENDENT"}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL, Model: "demo"}, WithHTTPClient(server.Client()))
	got, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if got != `{"series_name":"INDEPENDENT"}` {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestCompleteJSONRequiresKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected missing key error")
	}
	if client.Model() != DefaultModel {
		t.Fatalf("expected default model, got %q", client.Model())
	}
}

func TestCompleteJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeContent(t, w, `{"ok":true}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, WithSleeper(noSleep))
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestCompleteJSONDoesNotRetryUnauthorized(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL}, WithSleeper(noSleep))
	_, err := client.CompleteJSON(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "http 401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestCompleteJSONEmptyContentExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeContent(t, w, "")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, WithSleeper(noSleep), WithRetry(2, time.Millisecond, time.Millisecond))
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty content")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	cases := []string{
		`{"series_name":"Faith","episode_number_in_series":2}`,
		"```json\n{\"series_name\":\"Faith\",\"episode_number_in_series\":2}\n```",
		"Here you go: {\"series_name\":\"Faith\",\"episode_number_in_series\":2} hope that helps",
	}
	for _, content := range cases {
		var out struct {
			Series string `json:"series_name"`
			Number int    `json:"episode_number_in_series"`
		}
		if err := DecodeLLMJSON(content, &out); err != nil {
			t.Fatalf("DecodeLLMJSON(%q): %v", content, err)
		}
		if out.Series != "Faith" || out.Number != 2 {
			t.Fatalf("unexpected decode %+v", out)
		}
	}
	var out map[string]any
	if err := DecodeLLMJSON("no json here", &out); err == nil {
		t.Fatal("expected error")
	}
}

func TestBackoffCaps(t *testing.T) {
	client := NewClient(Config{}, WithRetry(5, time.Second, 3*time.Second))
	if got := client.backoff(1); got != time.Second {
		t.Fatalf("attempt 1: %v", got)
	}
	if got := client.backoff(2); got != 2*time.Second {
		t.Fatalf("attempt 2: %v", got)
	}
	if got := client.backoff(4); got != 3*time.Second {
		t.Fatalf("attempt 4: %v", got)
	}
}
