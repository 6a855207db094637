package audiolinks

import (
	"context"
	"log/slog"
	"time"

	"voxarchive/internal/catalog"
	"voxarchive/internal/logging"
	"voxarchive/internal/services"
	"voxarchive/internal/stage"
)

// Fetcher retrieves episode pages.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Resolver is the stage handler that fills audio_link.
type Resolver struct {
	fetcher Fetcher
	delay   time.Duration
	logger  *slog.Logger
}

// NewResolver constructs a Resolver that waits delay between episodes.
func NewResolver(fetcher Fetcher, delay time.Duration) *Resolver {
	return &Resolver{fetcher: fetcher, delay: delay, logger: logging.NewNop()}
}

// SetLogger implements stage.LoggerAware.
func (r *Resolver) SetLogger(logger *slog.Logger) {
	r.logger = logging.NewComponentLogger(logger, "audiolinks")
}

// Name implements stage.Handler.
func (r *Resolver) Name() string { return "resolve" }

// Needs implements stage.Handler.
func (r *Resolver) Needs(ep catalog.Episode) bool { return ep.AudioLink == "" }

// FailureDelay implements stage.FailurePacer.
func (r *Resolver) FailureDelay() time.Duration { return r.delay }

// Process fetches the episode page and extracts its audio link.
func (r *Resolver) Process(ctx context.Context, ep catalog.Episode) (stage.Outcome, error) {
	body, err := r.fetcher.Get(ctx, ep.URL)
	if err != nil {
		return stage.Outcome{}, err
	}
	link, ok, err := Extract(body)
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrValidation, "resolve", "parse page", ep.URL, err)
	}
	if !ok {
		return stage.Outcome{}, services.Wrap(services.ErrNotFound, "resolve", "extract audio link",
			"no .mp3 or .m4a link on "+ep.URL, nil)
	}
	r.logger.Info("audio link found",
		logging.String(logging.FieldEventType, "audio_link_found"),
		logging.String("title", ep.Title),
		logging.String("audio_link", link),
	)
	return stage.Outcome{Patch: catalog.Patch{AudioLink: link}, Delay: r.delay}, nil
}
