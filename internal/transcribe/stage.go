package transcribe

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"voxarchive/internal/catalog"
	"voxarchive/internal/fileutil"
	"voxarchive/internal/logging"
	"voxarchive/internal/services"
	"voxarchive/internal/stage"
)

// Stage is the stage handler that fills a backend's transcript field.
type Stage struct {
	backend Backend
	engine  Transcriber
	now     func() time.Time
	logger  *slog.Logger
}

// NewStage builds the handler for backend using engine.
func NewStage(backend Backend, engine Transcriber) *Stage {
	return &Stage{backend: backend, engine: engine, now: time.Now, logger: logging.NewNop()}
}

// WithClock overrides the time stamped into transcript headers.
func (s *Stage) WithClock(now func() time.Time) *Stage {
	s.now = now
	return s
}

// SetLogger implements stage.LoggerAware.
func (s *Stage) SetLogger(logger *slog.Logger) {
	s.logger = logging.NewComponentLogger(logger, "transcribe").With(logging.String("engine", s.backend.Engine))
}

// Name implements stage.Handler.
func (s *Stage) Name() string { return "transcribe" }

// Needs selects episodes whose audio is on disk but whose transcript is
// missing or not recorded at its expected path.
func (s *Stage) Needs(ep catalog.Episode) bool {
	if !fileutil.Exists(ep.FilePath) {
		return false
	}
	expected := s.backend.TranscriptPath(ep.FilePath)
	return s.backend.Recorded(ep) != expected || !fileutil.Exists(expected)
}

// FailureDelay implements stage.FailurePacer.
func (s *Stage) FailureDelay() time.Duration { return s.backend.Delay }

// Process repairs the catalog field when the transcript already exists and
// otherwise runs the engine and writes a new transcript.
func (s *Stage) Process(ctx context.Context, ep catalog.Episode) (stage.Outcome, error) {
	target := s.backend.TranscriptPath(ep.FilePath)
	patch := s.backend.Patch(target)

	if fileutil.Exists(target) {
		s.logger.Info("transcript already on disk",
			logging.String(logging.FieldEventType, "transcript_repaired"),
			logging.String("file", filepath.Base(target)),
		)
		return stage.Outcome{Patch: patch, Force: true, Repaired: true}, nil
	}

	started := time.Now()
	result, err := s.engine.Transcribe(ctx, ep.FilePath)
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrExternalTool, "transcribe", s.backend.Engine, filepath.Base(ep.FilePath), err)
	}
	text := Format(Document{
		Title:     ep.Title,
		AudioPath: ep.FilePath,
		Engine:    s.backend.Engine,
		Generated: s.now(),
		Result:    result,
	})
	if err := fileutil.WriteFileAtomic(target, []byte(text), 0o644); err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrTransient, "transcribe", "write transcript", target, err)
	}
	s.logger.Info("transcript written",
		logging.String(logging.FieldEventType, "transcript_written"),
		logging.String("title", ep.Title),
		logging.String("file", filepath.Base(target)),
		logging.Int("utterances", len(result.Utterances)),
		logging.Duration("elapsed", time.Since(started).Round(time.Second)),
	)
	return stage.Outcome{Patch: patch, Force: true, Delay: s.backend.Delay}, nil
}
