package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Persisted file names inside Paths.DataDir.
const (
	CatalogFileName = "episodes.json"
	SeriesFileName  = "series.json"
	StatsFileName   = "stats.json"
	ExportFileName  = "voxology_catalog.csv"
	LockFileName    = ".voxarchive.lock"
)

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	AudioDir string `toml:"audio_dir"`
	LogDir   string `toml:"log_dir"`
}

// Site describes the podcast website crawled by discovery and audio resolution.
type Site struct {
	Origin                 string   `toml:"origin"`
	BaseURLs               []string `toml:"base_urls"`
	PaginationPatterns     []string `toml:"pagination_patterns"`
	MaxPages               int      `toml:"max_pages"`
	UserAgent              string   `toml:"user_agent"`
	RequestTimeout         int      `toml:"request_timeout"`
	RetryDelay             int      `toml:"retry_delay"`
	PageDelay              int      `toml:"page_delay"`
	MaxConsecutiveFailures int      `toml:"max_consecutive_failures"`
	FeedURL                string   `toml:"feed_url"`
}

// Audio contains settings for audio link resolution and downloads.
type Audio struct {
	Extensions      []string `toml:"extensions"`
	ResolveTimeout  int      `toml:"resolve_timeout"`
	ResolveDelay    int      `toml:"resolve_delay"`
	DownloadTimeout int      `toml:"download_timeout"`
	DownloadDelay   int      `toml:"download_delay"`
}

// Transcription contains settings for both transcription backends.
type Transcription struct {
	Backend  string `toml:"backend"`
	Language string `toml:"language"`

	WhisperXModel       string `toml:"whisperx_model"`
	WhisperXCUDAEnabled bool   `toml:"whisperx_cuda_enabled"`
	WhisperXWorkDir     string `toml:"whisperx_work_dir"`
	HFToken             string `toml:"hf_token"`
	HFTokenFile         string `toml:"hf_token_file"`

	AssemblyAIAPIKey       string `toml:"assemblyai_api_key"`
	AssemblyAIKeyFile      string `toml:"assemblyai_key_file"`
	AssemblyAIBaseURL      string `toml:"assemblyai_base_url"`
	AssemblyAIPollInterval int    `toml:"assemblyai_poll_interval"`
}

// LLM contains the chat-completion settings used by series classification.
type LLM struct {
	APIKey           string `toml:"api_key"`
	APIKeyFile       string `toml:"api_key_file"`
	BaseURL          string `toml:"base_url"`
	Model            string `toml:"model"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	TranscriptWindow int    `toml:"transcript_window"`
}

// Stats contains settings for the statistics report.
type Stats struct {
	CostPerHour float64 `toml:"cost_per_hour"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for voxarchive.
//
// Configuration sections by subsystem:
//   - Paths: catalog, audio and log directories
//   - Site: crawl targets, pagination and politeness for discovery
//   - Audio: link resolution and download timing
//   - Transcription: local WhisperX and cloud AssemblyAI backends
//   - LLM: series classification model
//   - Stats: cost projection rate
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Site          Site          `toml:"site"`
	Audio         Audio         `toml:"audio"`
	Transcription Transcription `toml:"transcription"`
	LLM           LLM           `toml:"llm"`
	Stats         Stats         `toml:"stats"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/voxarchive/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("voxarchive.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, audio and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.AudioDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogPath returns the location of episodes.json.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.DataDir, CatalogFileName)
}

// SeriesPath returns the location of series.json.
func (c *Config) SeriesPath() string {
	return filepath.Join(c.Paths.DataDir, SeriesFileName)
}

// StatsPath returns the location of stats.json.
func (c *Config) StatsPath() string {
	return filepath.Join(c.Paths.DataDir, StatsFileName)
}

// ExportPath returns the default CSV export location.
func (c *Config) ExportPath() string {
	return filepath.Join(c.Paths.DataDir, ExportFileName)
}

// LockPath returns the advisory lock guarding stage runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, LockFileName)
}

// FFprobeBinary returns the ffprobe executable name used for duration probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
