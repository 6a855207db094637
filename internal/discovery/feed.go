package discovery

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"

	"voxarchive/internal/catalog"
	"voxarchive/internal/logging"
	"voxarchive/internal/services"
)

// FeedResult summarizes a feed backfill.
type FeedResult struct {
	Items   int
	Matched int
	Updated int
}

// BackfillFromFeed fills missing titles, publish dates and audio links of
// records already in the catalog from the podcast's RSS or Atom feed. Feed
// items are matched to records by URL; items with no record are ignored.
func BackfillFromFeed(ctx context.Context, fetcher Fetcher, store *catalog.Store, feedURL string, logger *slog.Logger) (FeedResult, error) {
	logger = logging.NewComponentLogger(logger, "feed")
	var result FeedResult

	body, err := fetcher.Get(ctx, feedURL)
	if err != nil {
		return result, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return result, services.Wrap(services.ErrValidation, "discovery", "parse feed", feedURL, err)
	}
	result.Items = len(feed.Items)

	index := make(map[string]string, store.Len())
	for ep := range store.Select(nil) {
		index[normalizeURL(ep.URL)] = ep.URL
	}

	for _, item := range feed.Items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		key, ok := index[normalizeURL(item.Link)]
		if !ok {
			continue
		}
		result.Matched++
		patch := patchFromItem(item)
		if patch.IsEmpty() {
			continue
		}
		if _, err := store.Upsert(key, patch); err != nil {
			return result, err
		}
		if store.Dirty() {
			result.Updated++
			if err := store.Save(); err != nil {
				return result, err
			}
		}
	}
	logger.Info("feed backfill complete",
		logging.String("feed_url", feedURL),
		logging.Int("items", result.Items),
		logging.Int("matched", result.Matched),
		logging.Int("updated", result.Updated),
	)
	return result, nil
}

func patchFromItem(item *gofeed.Item) catalog.Patch {
	patch := catalog.Patch{Title: strings.TrimSpace(item.Title)}
	switch {
	case item.PublishedParsed != nil:
		patch.PublishDate = item.PublishedParsed.Format(DateLayout)
	case item.UpdatedParsed != nil:
		patch.PublishDate = item.UpdatedParsed.Format(DateLayout)
	}
	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enclosure.Type), "audio/") || hasAudioExtension(enclosure.URL) {
			patch.AudioLink = strings.TrimSpace(enclosure.URL)
			break
		}
	}
	return patch
}

func hasAudioExtension(link string) bool {
	lower := strings.ToLower(link)
	return strings.Contains(lower, ".mp3") || strings.Contains(lower, ".m4a")
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	raw = strings.TrimPrefix(raw, "www.")
	return strings.ToLower(strings.TrimRight(raw, "/"))
}
