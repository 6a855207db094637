package config

const (
	defaultDataDir                = "."
	defaultAudioSubdir            = "catalog"
	defaultLogDir                 = "~/.local/share/voxarchive/logs"
	defaultSiteOrigin             = "https://www.voxologypodcast.com"
	defaultMaxPages               = 23
	defaultUserAgent              = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultRequestTimeout         = 10
	defaultRetryDelay             = 5
	defaultPageDelay              = 1
	defaultMaxConsecutiveFailures = 3
	defaultResolveTimeout         = 15
	defaultResolveDelay           = 1
	defaultDownloadTimeout        = 30
	defaultDownloadDelay          = 2
	defaultBackend                = BackendLocal
	defaultLanguage               = "en"
	defaultWhisperXModel          = "large-v3"
	defaultHFTokenFile            = "~/.huggingface/token.txt"
	defaultAssemblyAIKeyFile      = "~/.ssh/assemblyai.txt"
	defaultAssemblyAIBaseURL      = "https://api.assemblyai.com"
	defaultAssemblyAIPollInterval = 5
	defaultLLMKeyFile             = "~/.ssh/gemini_api_key.txt"
	defaultLLMBaseURL             = "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"
	defaultLLMModel               = "gemini-2.5-flash"
	defaultLLMTimeoutSeconds      = 60
	defaultTranscriptWindow       = 8000
	defaultCostPerHour            = 0.12
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Transcription backends.
const (
	BackendLocal = "local"
	BackendCloud = "cloud"
)

func defaultBaseURLs() []string {
	return []string{
		"https://www.voxologypodcast.com/episodes/",
		"https://www.voxologypodcast.com/episodes",
		"https://voxologypodcast.com/episodes/",
		"https://voxologypodcast.com/episodes",
	}
}

func defaultPaginationPatterns() []string {
	return []string{"{base}?page={n}", "{base}/page/{n}/", "{base}/{n}/"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Site: Site{
			Origin:                 defaultSiteOrigin,
			BaseURLs:               defaultBaseURLs(),
			PaginationPatterns:     defaultPaginationPatterns(),
			MaxPages:               defaultMaxPages,
			UserAgent:              defaultUserAgent,
			RequestTimeout:         defaultRequestTimeout,
			RetryDelay:             defaultRetryDelay,
			PageDelay:              defaultPageDelay,
			MaxConsecutiveFailures: defaultMaxConsecutiveFailures,
		},
		Audio: Audio{
			Extensions:      []string{".mp3", ".m4a"},
			ResolveTimeout:  defaultResolveTimeout,
			ResolveDelay:    defaultResolveDelay,
			DownloadTimeout: defaultDownloadTimeout,
			DownloadDelay:   defaultDownloadDelay,
		},
		Transcription: Transcription{
			Backend:                defaultBackend,
			Language:               defaultLanguage,
			WhisperXModel:          defaultWhisperXModel,
			HFTokenFile:            defaultHFTokenFile,
			AssemblyAIKeyFile:      defaultAssemblyAIKeyFile,
			AssemblyAIBaseURL:      defaultAssemblyAIBaseURL,
			AssemblyAIPollInterval: defaultAssemblyAIPollInterval,
		},
		LLM: LLM{
			APIKeyFile:       defaultLLMKeyFile,
			BaseURL:          defaultLLMBaseURL,
			Model:            defaultLLMModel,
			TimeoutSeconds:   defaultLLMTimeoutSeconds,
			TranscriptWindow: defaultTranscriptWindow,
		},
		Stats: Stats{
			CostPerHour: defaultCostPerHour,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
