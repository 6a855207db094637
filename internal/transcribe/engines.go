package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"voxarchive/internal/services/assemblyai"
	"voxarchive/internal/services/whisperx"
)

// WhisperXRunner is the subset of whisperx.Service used here.
type WhisperXRunner interface {
	Transcribe(ctx context.Context, audioPath, outputDir string) (whisperx.Result, error)
}

// WhisperXEngine transcribes locally with WhisperX.
type WhisperXEngine struct {
	runner  WhisperXRunner
	workDir string
}

// NewWhisperXEngine wraps runner. WhisperX scratch output goes to a fresh
// directory under workDir (the system temp dir when empty) and is removed
// after each file.
func NewWhisperXEngine(runner WhisperXRunner, workDir string) *WhisperXEngine {
	return &WhisperXEngine{runner: runner, workDir: workDir}
}

// Transcribe implements Transcriber.
func (e *WhisperXEngine) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	if e.workDir != "" {
		if err := os.MkdirAll(e.workDir, 0o755); err != nil {
			return Result{}, fmt.Errorf("whisperx work dir: %w", err)
		}
	}
	scratch, err := os.MkdirTemp(e.workDir, "whisperx-")
	if err != nil {
		return Result{}, fmt.Errorf("whisperx work dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	out, err := e.runner.Transcribe(ctx, audioPath, scratch)
	if err != nil {
		return Result{}, err
	}
	result := Result{FullText: out.Text}
	for _, seg := range out.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		result.Utterances = append(result.Utterances, Utterance{
			Start:   seconds(seg.Start),
			End:     seconds(seg.End),
			Speaker: seg.Speaker,
			Text:    text,
		})
	}
	if len(result.Utterances) == 0 {
		return Result{}, errors.New("whisperx produced no speech segments")
	}
	return result, nil
}

// AssemblyAIRunner is the subset of assemblyai.Client used here.
type AssemblyAIRunner interface {
	Transcribe(ctx context.Context, audioPath string) (assemblyai.Transcript, error)
}

// AssemblyAIEngine transcribes through the AssemblyAI API.
type AssemblyAIEngine struct {
	runner AssemblyAIRunner
}

// NewAssemblyAIEngine wraps runner.
func NewAssemblyAIEngine(runner AssemblyAIRunner) *AssemblyAIEngine {
	return &AssemblyAIEngine{runner: runner}
}

// Transcribe implements Transcriber.
func (e *AssemblyAIEngine) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	tx, err := e.runner.Transcribe(ctx, audioPath)
	if err != nil {
		return Result{}, err
	}
	var result Result
	for _, u := range tx.Utterances {
		result.Utterances = append(result.Utterances, Utterance{
			Start:   time.Duration(u.Start) * time.Millisecond,
			End:     time.Duration(u.End) * time.Millisecond,
			Speaker: u.Speaker,
			Text:    u.Text,
		})
	}
	if len(result.Utterances) == 0 {
		return Result{}, fmt.Errorf("assemblyai transcript %s has no utterances", tx.ID)
	}
	return result, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
