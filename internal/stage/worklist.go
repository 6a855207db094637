package stage

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"voxarchive/internal/catalog"
	"voxarchive/internal/logging"
	"voxarchive/internal/services"
)

// Counts tallies a worklist run.
type Counts struct {
	Pending   int
	Processed int
	Repaired  int
	Failed    int
}

// Attrs renders counts as log attributes.
func (c Counts) Attrs() []logging.Attr {
	return []logging.Attr{
		logging.Int("pending", c.Pending),
		logging.Int("processed", c.Processed),
		logging.Int("repaired", c.Repaired),
		logging.Int("failed", c.Failed),
	}
}

// Sleeper waits between records.
type Sleeper func(ctx context.Context, d time.Duration) error

// RunWorklist processes every record the handler needs, merging each
// outcome into the store and saving after every record. Per-record errors
// are logged and counted; fatal errors (see services.IsFatal) and
// cancellation stop the run.
func RunWorklist(ctx context.Context, store *catalog.Store, handler Handler, logger *slog.Logger, sleep Sleeper) (Counts, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if aware, ok := handler.(LoggerAware); ok {
		aware.SetLogger(logger)
	}
	var counts Counts
	worklist := slices.Collect(store.Select(handler.Needs))
	counts.Pending = len(worklist)
	logger.Info("worklist built",
		logging.String(logging.FieldEventType, "worklist_built"),
		logging.Int("pending", counts.Pending),
		logging.Int("catalog_size", store.Len()),
	)

	for i, ep := range worklist {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		epCtx := services.WithEpisodeURL(ctx, ep.URL)
		epLogger := logging.WithContext(epCtx, logger)

		outcome, err := handler.Process(epCtx, ep)
		if err != nil {
			if services.IsFatal(err) || ctx.Err() != nil {
				return counts, err
			}
			counts.Failed++
			logging.WarnWithContext(epLogger, handler.Name()+" failed for episode", handler.Name()+"_failed",
				logging.String("title", ep.Title),
				logging.Int("position", i+1),
				logging.Int("of", counts.Pending),
				logging.Error(err),
			)
			if pacer, ok := handler.(FailurePacer); ok && sleep != nil && i < len(worklist)-1 {
				if err := sleep(ctx, pacer.FailureDelay()); err != nil {
					return counts, err
				}
			}
			continue
		}

		if outcome.Repaired {
			counts.Repaired++
		} else {
			counts.Processed++
		}
		if !outcome.Patch.IsEmpty() {
			var opts []catalog.UpsertOption
			if outcome.Force {
				opts = append(opts, catalog.Force())
			}
			if _, err := store.Upsert(ep.URL, outcome.Patch, opts...); err != nil {
				return counts, err
			}
		}
		if err := store.Save(); err != nil {
			return counts, err
		}
		epLogger.Debug("episode done",
			logging.String("title", ep.Title),
			logging.Int("position", i+1),
			logging.Int("of", counts.Pending),
			logging.Bool("repaired", outcome.Repaired),
		)
		if sleep != nil && outcome.Delay > 0 && i < len(worklist)-1 {
			if err := sleep(ctx, outcome.Delay); err != nil {
				return counts, err
			}
		}
	}
	return counts, nil
}
