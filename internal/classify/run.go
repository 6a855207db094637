package classify

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"voxarchive/internal/catalog"
	"voxarchive/internal/logging"
	"voxarchive/internal/series"
	"voxarchive/internal/services"
)

// Options configures a classification run.
type Options struct {
	Store      *catalog.Store
	SeriesPath string
	Classifier Classifier
	Logger     *slog.Logger
	// Delay is waited between classifier calls.
	Delay time.Duration
	Sleep func(context.Context, time.Duration) error
}

// Counts tallies a classification run.
type Counts struct {
	Candidates  int
	Cached      int
	Classified  int
	Series      int
	Independent int
	Collisions  int
	Failed      int
}

// Attrs renders counts as log attributes.
func (c Counts) Attrs() []logging.Attr {
	return []logging.Attr{
		logging.Int("candidates", c.Candidates),
		logging.Int("cached", c.Cached),
		logging.Int("classified", c.Classified),
		logging.Int("series", c.Series),
		logging.Int("independent", c.Independent),
		logging.Int("collisions", c.Collisions),
		logging.Int("failed", c.Failed),
	}
}

// Run classifies every transcribed episode missing from the series map.
func Run(ctx context.Context, opts Options) (Counts, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	var counts Counts

	m, err := series.Load(opts.SeriesPath)
	if err != nil {
		return counts, err
	}
	if m.Migrated() {
		if err := series.Save(opts.SeriesPath, m); err != nil {
			return counts, services.Wrap(services.ErrConfiguration, "classify", "persist migrated series map", opts.SeriesPath, err)
		}
		logger.Info("migrated independent episodes to list form",
			logging.String(logging.FieldEventType, "series_migrated"),
			logging.Int("independent", len(m.Independent)),
		)
	}

	candidates := slices.Collect(opts.Store.Select(func(ep catalog.Episode) bool {
		return transcriptFile(ep) != ""
	}))
	slices.SortStableFunc(candidates, func(a, b catalog.Episode) int {
		return cmp.Compare(a.Page, b.Page)
	})
	counts.Candidates = len(candidates)
	logger.Info("classification candidates",
		logging.String(logging.FieldEventType, "worklist_built"),
		logging.Int("candidates", counts.Candidates),
		logging.Int("already_classified", classifiedCount(m)),
	)

	called := false
	for i, ep := range candidates {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		key := ep.Key()
		if m.Contains(key) {
			counts.Cached++
			continue
		}
		epLogger := logging.WithContext(services.WithEpisodeURL(ctx, ep.URL), logger)

		current, err := loadText(ep)
		if err != nil || current == "" {
			counts.Failed++
			logging.WarnWithContext(epLogger, "transcript unreadable", "classify_failed",
				logging.String("title", ep.Title),
				logging.String("transcript", transcriptFile(ep)),
				logging.Error(err),
			)
			continue
		}
		var previous string
		if i > 0 {
			previous, _ = loadText(candidates[i-1])
		}

		if called && opts.Delay > 0 && opts.Sleep != nil {
			if err := opts.Sleep(ctx, opts.Delay); err != nil {
				return counts, err
			}
		}
		called = true

		decision, err := opts.Classifier.Classify(ctx, Request{Episode: ep, Current: current, Previous: previous, Series: m})
		if err != nil {
			if services.IsFatal(err) || ctx.Err() != nil {
				return counts, err
			}
			counts.Failed++
			logging.WarnWithContext(epLogger, "classification failed", "classify_failed",
				logging.String("title", ep.Title),
				logging.Error(err),
			)
			continue
		}

		name := m.CanonicalName(decision.SeriesName)
		assigned, collided, err := m.Assign(name, decision.Number, key)
		if err != nil {
			counts.Failed++
			logging.WarnWithContext(epLogger, "series assignment rejected", "classify_failed",
				logging.String("title", ep.Title),
				logging.String("series", name),
				logging.Error(err),
			)
			continue
		}
		if collided {
			counts.Collisions++
			logging.WarnWithContext(epLogger, "episode number collision, appended at end of series", "series_collision",
				logging.String("series", name),
				logging.Int("requested", decision.Number),
				logging.Int("assigned", assigned),
			)
		}
		if err := series.Save(opts.SeriesPath, m); err != nil {
			return counts, services.Wrap(services.ErrConfiguration, "classify", "save series map", opts.SeriesPath, err)
		}

		counts.Classified++
		if name == series.Independent {
			counts.Independent++
		} else {
			counts.Series++
		}
		epLogger.Info("episode classified",
			logging.String(logging.FieldEventType, "episode_classified"),
			logging.String("title", ep.Title),
			logging.String("series", name),
			logging.Int("number", assigned),
		)
	}
	return counts, nil
}

func classifiedCount(m *series.Map) int {
	inSeries, independent := m.Counts()
	return inSeries + independent
}
