package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSite()
	c.normalizeAudio()
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	if err := c.normalizeLLM(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AudioDir) == "" {
		c.Paths.AudioDir = filepath.Join(c.Paths.DataDir, defaultAudioSubdir)
	}
	if c.Paths.AudioDir, err = expandPath(c.Paths.AudioDir); err != nil {
		return fmt.Errorf("paths.audio_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSite() {
	c.Site.Origin = strings.TrimRight(strings.TrimSpace(c.Site.Origin), "/")
	if c.Site.Origin == "" {
		c.Site.Origin = defaultSiteOrigin
	}
	c.Site.BaseURLs = trimList(c.Site.BaseURLs)
	if len(c.Site.BaseURLs) == 0 {
		c.Site.BaseURLs = defaultBaseURLs()
	}
	c.Site.PaginationPatterns = trimList(c.Site.PaginationPatterns)
	if len(c.Site.PaginationPatterns) == 0 {
		c.Site.PaginationPatterns = defaultPaginationPatterns()
	}
	c.Site.UserAgent = strings.TrimSpace(c.Site.UserAgent)
	if c.Site.UserAgent == "" {
		c.Site.UserAgent = defaultUserAgent
	}
	if c.Site.RequestTimeout <= 0 {
		c.Site.RequestTimeout = defaultRequestTimeout
	}
	if c.Site.MaxPages <= 0 {
		c.Site.MaxPages = defaultMaxPages
	}
	if c.Site.MaxConsecutiveFailures <= 0 {
		c.Site.MaxConsecutiveFailures = defaultMaxConsecutiveFailures
	}
	c.Site.FeedURL = strings.TrimSpace(c.Site.FeedURL)
}

func (c *Config) normalizeAudio() {
	exts := make([]string, 0, len(c.Audio.Extensions))
	for _, ext := range trimList(c.Audio.Extensions) {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = []string{".mp3", ".m4a"}
	}
	c.Audio.Extensions = exts
	if c.Audio.ResolveTimeout <= 0 {
		c.Audio.ResolveTimeout = defaultResolveTimeout
	}
	if c.Audio.DownloadTimeout <= 0 {
		c.Audio.DownloadTimeout = defaultDownloadTimeout
	}
}

func (c *Config) normalizeTranscription() error {
	t := &c.Transcription
	t.Backend = strings.ToLower(strings.TrimSpace(t.Backend))
	if t.Backend == "" {
		t.Backend = defaultBackend
	}
	t.Language = strings.ToLower(strings.TrimSpace(t.Language))
	if t.Language == "" {
		t.Language = defaultLanguage
	}
	t.WhisperXModel = strings.TrimSpace(t.WhisperXModel)
	if t.WhisperXModel == "" {
		t.WhisperXModel = defaultWhisperXModel
	}
	var err error
	if t.WhisperXWorkDir, err = expandPath(strings.TrimSpace(t.WhisperXWorkDir)); err != nil {
		return fmt.Errorf("transcription.whisperx_work_dir: %w", err)
	}
	t.HFToken = strings.TrimSpace(t.HFToken)
	if t.HFToken == "" {
		t.HFToken = firstEnv("HF_TOKEN", "HUGGING_FACE_HUB_TOKEN")
	}
	if t.HFTokenFile, err = expandPath(strings.TrimSpace(t.HFTokenFile)); err != nil {
		return fmt.Errorf("transcription.hf_token_file: %w", err)
	}
	t.AssemblyAIAPIKey = strings.TrimSpace(t.AssemblyAIAPIKey)
	if t.AssemblyAIAPIKey == "" {
		t.AssemblyAIAPIKey = firstEnv("ASSEMBLYAI_API_KEY")
	}
	if t.AssemblyAIKeyFile, err = expandPath(strings.TrimSpace(t.AssemblyAIKeyFile)); err != nil {
		return fmt.Errorf("transcription.assemblyai_key_file: %w", err)
	}
	t.AssemblyAIBaseURL = strings.TrimRight(strings.TrimSpace(t.AssemblyAIBaseURL), "/")
	if t.AssemblyAIBaseURL == "" {
		t.AssemblyAIBaseURL = defaultAssemblyAIBaseURL
	}
	if t.AssemblyAIPollInterval <= 0 {
		t.AssemblyAIPollInterval = defaultAssemblyAIPollInterval
	}
	return nil
}

func (c *Config) normalizeLLM() error {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = firstEnv("GEMINI_API_KEY")
	}
	var err error
	if c.LLM.APIKeyFile, err = expandPath(strings.TrimSpace(c.LLM.APIKeyFile)); err != nil {
		return fmt.Errorf("llm.api_key_file: %w", err)
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.TranscriptWindow <= 0 {
		c.LLM.TranscriptWindow = defaultTranscriptWindow
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
