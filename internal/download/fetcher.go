// Package download streams episode audio into the local catalog directory.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"voxarchive/internal/catalog"
	"voxarchive/internal/fileutil"
	"voxarchive/internal/logging"
	"voxarchive/internal/services"
	"voxarchive/internal/stage"
)

// Opener starts a streaming GET; only the wait for headers is bounded.
type Opener interface {
	Open(ctx context.Context, url string, headerTimeout time.Duration) (io.ReadCloser, int64, error)
}

// Config controls the download stage.
type Config struct {
	AudioDir      string
	HeaderTimeout time.Duration
	Delay         time.Duration
}

// Fetcher is the stage handler that fills file_path.
type Fetcher struct {
	cfg    Config
	opener Opener
	logger *slog.Logger
}

// NewFetcher constructs a Fetcher.
func NewFetcher(cfg Config, opener Opener) *Fetcher {
	return &Fetcher{cfg: cfg, opener: opener, logger: logging.NewNop()}
}

// SetLogger implements stage.LoggerAware.
func (f *Fetcher) SetLogger(logger *slog.Logger) {
	f.logger = logging.NewComponentLogger(logger, "download")
}

// Name implements stage.Handler.
func (f *Fetcher) Name() string { return "download" }

// Needs selects episodes with an audio link whose file_path is unset or
// points at a missing file.
func (f *Fetcher) Needs(ep catalog.Episode) bool {
	return ep.AudioLink != "" && !fileutil.Exists(ep.FilePath)
}

// FailureDelay implements stage.FailurePacer.
func (f *Fetcher) FailureDelay() time.Duration { return f.cfg.Delay }

// Process downloads the episode audio unless the target file already exists.
// Either way file_path is rewritten to the target.
func (f *Fetcher) Process(ctx context.Context, ep catalog.Episode) (stage.Outcome, error) {
	if err := os.MkdirAll(f.cfg.AudioDir, 0o755); err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrConfiguration, "download", "create audio dir", f.cfg.AudioDir, err)
	}
	target := filepath.Join(f.cfg.AudioDir, FileName(ep.URL, ep.AudioLink))
	patch := catalog.Patch{FilePath: target}

	if fileutil.Exists(target) {
		f.logger.Info("audio already on disk",
			logging.String(logging.FieldEventType, "download_existing"),
			logging.String("file", filepath.Base(target)),
		)
		return stage.Outcome{Patch: patch, Force: true, Repaired: true}, nil
	}

	source, err := resolveAudioURL(ep.URL, ep.AudioLink)
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrValidation, "download", "resolve audio url", ep.AudioLink, err)
	}
	body, size, err := f.opener.Open(ctx, source, f.cfg.HeaderTimeout)
	if err != nil {
		return stage.Outcome{}, err
	}
	defer body.Close()

	written, err := fileutil.StreamToFile(target, body)
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrTransient, "download", "stream audio", source, err)
	}
	if size > 0 && written != size {
		_ = os.Remove(target)
		return stage.Outcome{}, services.Wrap(services.ErrTransient, "download", "stream audio",
			fmt.Sprintf("short download: got %d of %d bytes", written, size), nil)
	}
	f.logger.Info("audio downloaded",
		logging.String(logging.FieldEventType, "download_complete"),
		logging.String("title", ep.Title),
		logging.String("file", filepath.Base(target)),
		logging.Int64("bytes", written),
	)
	return stage.Outcome{Patch: patch, Force: true, Delay: f.cfg.Delay}, nil
}

// resolveAudioURL resolves a relative audio link against the episode page.
func resolveAudioURL(episodeURL, audioLink string) (string, error) {
	ref, err := url.Parse(audioLink)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(episodeURL)
	if err != nil {
		return "", err
	}
	if !base.IsAbs() {
		return "", fmt.Errorf("relative audio link %q on relative episode url %q", audioLink, episodeURL)
	}
	return base.ResolveReference(ref).String(), nil
}
