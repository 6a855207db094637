package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Credentials are not checked
// here: each stage resolves its own secret when it starts.
func (c *Config) Validate() error {
	if err := c.validateSite(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if c.Stats.CostPerHour < 0 {
		return errors.New("stats.cost_per_hour must be >= 0")
	}
	return c.validateLogging()
}

func (c *Config) validateSite() error {
	if err := validateHTTPURL("site.origin", c.Site.Origin); err != nil {
		return err
	}
	for _, base := range c.Site.BaseURLs {
		if err := validateHTTPURL("site.base_urls", base); err != nil {
			return err
		}
	}
	for _, pattern := range c.Site.PaginationPatterns {
		if !strings.Contains(pattern, "{n}") {
			return fmt.Errorf("site.pagination_patterns: %q must contain {n}", pattern)
		}
	}
	if c.Site.RetryDelay < 0 || c.Site.PageDelay < 0 {
		return errors.New("site.retry_delay and site.page_delay must be >= 0")
	}
	if c.Site.FeedURL != "" {
		if err := validateHTTPURL("site.feed_url", c.Site.FeedURL); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.ResolveDelay < 0 || c.Audio.DownloadDelay < 0 {
		return errors.New("audio.resolve_delay and audio.download_delay must be >= 0")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case BackendLocal, BackendCloud:
	default:
		return fmt.Errorf("transcription.backend must be %q or %q, got %q", BackendLocal, BackendCloud, c.Transcription.Backend)
	}
	return validateHTTPURL("transcription.assemblyai_base_url", c.Transcription.AssemblyAIBaseURL)
}

func (c *Config) validateLLM() error {
	if err := validateHTTPURL("llm.base_url", c.LLM.BaseURL); err != nil {
		return err
	}
	if c.LLM.TranscriptWindow < 500 {
		return errors.New("llm.transcript_window must be at least 500 characters")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(field, value string) error {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", field, value)
	}
	return nil
}
