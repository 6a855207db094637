package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"voxarchive/internal/services"
)

// LLMAPIKey returns the classification API key from the inline value,
// GEMINI_API_KEY, or the key file, in that order.
func (c *Config) LLMAPIKey() (string, error) {
	return readSecret("llm", "GEMINI_API_KEY", c.LLM.APIKey, c.LLM.APIKeyFile)
}

// AssemblyAIKey returns the cloud transcription API key.
func (c *Config) AssemblyAIKey() (string, error) {
	return readSecret("assemblyai", "ASSEMBLYAI_API_KEY", c.Transcription.AssemblyAIAPIKey, c.Transcription.AssemblyAIKeyFile)
}

// HuggingFaceToken returns the token WhisperX needs for diarization models.
func (c *Config) HuggingFaceToken() (string, error) {
	return readSecret("huggingface", "HF_TOKEN", c.Transcription.HFToken, c.Transcription.HFTokenFile)
}

func readSecret(name, envKey, inline, file string) (string, error) {
	if value := strings.TrimSpace(inline); value != "" {
		return value, nil
	}
	if strings.TrimSpace(file) == "" {
		return "", services.Wrap(services.ErrConfiguration, "config", "read "+name+" credential",
			fmt.Sprintf("no %s credential configured; set %s or a key file", name, envKey), nil)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		message := fmt.Sprintf("read %s key file %s", name, file)
		if errors.Is(err, fs.ErrNotExist) {
			message = fmt.Sprintf("%s key file %s not found; set %s or create the file", name, file, envKey)
		}
		return "", services.Wrap(services.ErrConfiguration, "config", "read "+name+" credential", message, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", services.Wrap(services.ErrConfiguration, "config", "read "+name+" credential",
			fmt.Sprintf("%s key file %s is empty", name, file), nil)
	}
	return value, nil
}
