package transcribe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"voxarchive/internal/catalog"
)

// Utterance is one speaker turn.
type Utterance struct {
	Start   time.Duration
	End     time.Duration
	Speaker string
	Text    string
}

// Result is what an engine produced for one audio file.
type Result struct {
	Utterances []Utterance
	// FullText is the transcript without speaker labels, when the engine
	// provides one.
	FullText string
}

// Transcriber converts a local audio file into utterances.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (Result, error)
}

// Backend describes where a transcription engine's output lives.
type Backend struct {
	// Name is the config value selecting the backend.
	Name string
	// Engine labels the transcript header and logs.
	Engine string
	// Suffix replaces the audio extension in the transcript file name.
	Suffix string
	// Delay is waited between engine calls.
	Delay time.Duration
}

// Known backends.
var (
	Local = Backend{Name: "local", Engine: "WhisperX", Suffix: ".txt"}
	Cloud = Backend{Name: "cloud", Engine: "AssemblyAI", Suffix: "-assemblyai.txt", Delay: time.Second}
)

// BackendFor returns the backend registered under name.
func BackendFor(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Local.Name:
		return Local, nil
	case Cloud.Name:
		return Cloud, nil
	default:
		return Backend{}, fmt.Errorf("unknown transcription backend %q", name)
	}
}

// TranscriptPath returns the transcript location for an audio file.
func (b Backend) TranscriptPath(audioPath string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(filepath.Dir(audioPath), base+b.Suffix)
}

// Recorded returns the transcript path the catalog holds for this backend.
func (b Backend) Recorded(ep catalog.Episode) string {
	if b.Name == Cloud.Name {
		return ep.TranscriptionFilePathAssemblyAI
	}
	return ep.TranscriptionFilePath
}

// Patch sets this backend's transcript field.
func (b Backend) Patch(path string) catalog.Patch {
	if b.Name == Cloud.Name {
		return catalog.Patch{TranscriptionFilePathAssemblyAI: path}
	}
	return catalog.Patch{TranscriptionFilePath: path}
}
