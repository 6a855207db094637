package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public AssemblyAI API host.
	DefaultBaseURL = "https://api.assemblyai.com"

	defaultPollInterval = 5 * time.Second
	defaultHTTPTimeout  = 10 * time.Minute
)

// Transcript statuses reported by the API.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "error"
)

// Config captures the API credentials and polling cadence.
type Config struct {
	APIKey       string
	BaseURL      string
	Language     string
	PollInterval time.Duration
}

// Utterance is one speaker turn. Start and End are milliseconds.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
}

// Transcript is the subset of the transcript resource voxarchive reads.
type Transcript struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"`
	Text       string      `json:"text"`
	Error      string      `json:"error"`
	Utterances []Utterance `json:"utterances"`
}

// Client talks to AssemblyAI.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleep      func(context.Context, time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper replaces the poll wait (tests pass a no-op).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// NewClient builds a client; blank fields take package defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe uploads audioPath, requests a diarized transcript and waits for
// it to finish.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (Transcript, error) {
	uploadURL, err := c.Upload(ctx, audioPath)
	if err != nil {
		return Transcript{}, err
	}
	id, err := c.Submit(ctx, uploadURL)
	if err != nil {
		return Transcript{}, err
	}
	return c.Wait(ctx, id)
}

// Upload streams a local file to the upload endpoint and returns the
// private URL AssemblyAI assigns it.
func (c *Client) Upload(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("assemblyai upload: %w", err)
	}
	defer file.Close()

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/upload", "application/octet-stream", file, &out); err != nil {
		return "", fmt.Errorf("assemblyai upload: %w", err)
	}
	if out.UploadURL == "" {
		return "", errors.New("assemblyai upload: response missing upload_url")
	}
	return out.UploadURL, nil
}

type transcriptRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
	LanguageCode  string `json:"language_code"`
	Punctuate     bool   `json:"punctuate"`
	FormatText    bool   `json:"format_text"`
}

// Submit requests a transcript of audioURL with speaker labels and returns its ID.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(transcriptRequest{
		AudioURL:      audioURL,
		SpeakerLabels: true,
		LanguageCode:  c.cfg.Language,
		Punctuate:     true,
		FormatText:    true,
	})
	if err != nil {
		return "", fmt.Errorf("assemblyai submit: encode: %w", err)
	}
	var out Transcript
	if err := c.do(ctx, http.MethodPost, "/v2/transcript", "application/json", bytes.NewReader(body), &out); err != nil {
		return "", fmt.Errorf("assemblyai submit: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("assemblyai submit: response missing id")
	}
	return out.ID, nil
}

// Wait polls the transcript until it completes or errors.
func (c *Client) Wait(ctx context.Context, id string) (Transcript, error) {
	path := "/v2/transcript/" + url.PathEscape(id)
	for {
		var out Transcript
		if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
			return Transcript{}, fmt.Errorf("assemblyai poll %s: %w", id, err)
		}
		switch out.Status {
		case StatusCompleted:
			return out, nil
		case StatusFailed:
			return out, fmt.Errorf("assemblyai transcript %s failed: %s", id, out.Error)
		}
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return Transcript{}, err
		}
	}
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	if c.cfg.APIKey == "" {
		return errors.New("api key required")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError reports a non-2xx API response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
