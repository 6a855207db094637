package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"voxarchive/internal/catalog"
	"voxarchive/internal/logging"
	"voxarchive/internal/services"
)

// Fetcher is the HTTP surface the crawler needs.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
	GetOnce(ctx context.Context, url string) ([]byte, error)
	Pause(ctx context.Context, d time.Duration) error
}

// Config controls a crawl.
type Config struct {
	Origin                 string
	BaseURLs               []string
	PaginationPatterns     []string
	MaxPages               int
	PageDelay              time.Duration
	MaxConsecutiveFailures int
	// Refresh re-fetches every page and overwrites discovery-owned fields.
	Refresh bool
}

// Result summarizes a crawl.
type Result struct {
	PagesFetched  int
	PagesSkipped  int
	PagesFailed   int
	EpisodesSeen  int
	EpisodesAdded int
	DatesMissing  int
	StopReason    string
}

// Crawler walks the paginated episode listing and upserts what it finds.
type Crawler struct {
	cfg     Config
	fetcher Fetcher
	store   *catalog.Store
	logger  *slog.Logger
}

// NewCrawler constructs a Crawler.
func NewCrawler(cfg Config, fetcher Fetcher, store *catalog.Store, logger *slog.Logger) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = 3
	}
	if len(cfg.PaginationPatterns) == 0 {
		cfg.PaginationPatterns = []string{"{base}?page={n}"}
	}
	return &Crawler{
		cfg:     cfg,
		fetcher: fetcher,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "discovery"),
	}
}

// Run crawls pages 1..MaxPages. Pages already processed are skipped unless
// Refresh is set or one of their records lacks a title or publish date.
// Crawling stops at the first page without episodes, or after
// MaxConsecutiveFailures failed fetches in a row.
func (c *Crawler) Run(ctx context.Context) (Result, error) {
	var result Result
	pending := c.pendingPages()
	if len(pending) == 0 {
		result.PagesSkipped = c.cfg.MaxPages
		result.StopReason = "all pages processed"
		c.logger.Info("discovery up to date", logging.Int("pages", c.cfg.MaxPages))
		return result, nil
	}

	base, err := c.probeBaseURL(ctx)
	if err != nil {
		return result, err
	}
	pattern := c.cfg.PaginationPatterns[0]
	if pending[2] && c.cfg.MaxPages >= 2 {
		pattern = c.probePagination(ctx, base)
	}

	failures := 0
	for page := 1; page <= c.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !pending[page] {
			result.PagesSkipped++
			continue
		}
		pageURL := base
		if page > 1 {
			pageURL = PageURL(pattern, base, page)
		}

		episodes, err := c.fetchPage(ctx, pageURL, page)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			failures++
			result.PagesFailed++
			logging.WarnWithContext(c.logger, "listing page fetch failed", "page_fetch_failed",
				logging.Int("page", page),
				logging.String("url", pageURL),
				logging.Int("consecutive_failures", failures),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check network access to the podcast site"),
				logging.String(logging.FieldImpact, "page left unprocessed; retried on next run"),
			)
			if failures >= c.cfg.MaxConsecutiveFailures {
				result.StopReason = fmt.Sprintf("%d consecutive failures", failures)
				break
			}
			if err := c.fetcher.Pause(ctx, c.cfg.PageDelay); err != nil {
				return result, err
			}
			continue
		}
		failures = 0
		result.PagesFetched++

		if len(episodes) == 0 {
			c.logger.Info("no episodes on page, stopping pagination",
				logging.Int("page", page),
				logging.String(logging.FieldEventType, "pagination_end"),
			)
			result.StopReason = "empty page " + strconv.Itoa(page)
			break
		}
		if err := c.mergePage(page, episodes, &result); err != nil {
			return result, err
		}
		if err := c.fetcher.Pause(ctx, c.cfg.PageDelay); err != nil {
			return result, err
		}
	}
	if result.StopReason == "" {
		result.StopReason = "page limit reached"
	}
	return result, nil
}

func (c *Crawler) fetchPage(ctx context.Context, pageURL string, page int) ([]Listing, error) {
	body, err := c.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if page > 1 && IsNotFoundPage(body) {
		return nil, services.Wrap(services.ErrNotFound, "discovery", "fetch page", pageURL+" is a not-found page", nil)
	}
	return ExtractListings(body, c.cfg.Origin)
}

func (c *Crawler) mergePage(page int, listings []Listing, result *Result) error {
	var opts []catalog.UpsertOption
	if c.cfg.Refresh {
		opts = append(opts, catalog.Force())
	}
	for _, listing := range listings {
		patch := catalog.Patch{Page: page, Title: listing.Title}
		if listing.DateText != "" {
			date, ok := ParseDate(listing.DateText)
			if ok {
				patch.PublishDate = date
			} else {
				result.DatesMissing++
				logging.WarnWithContext(c.logger, "unparsable publish date", "date_parse_failed",
					logging.String("url", listing.URL),
					logging.String("date_text", truncateForLog(listing.DateText)),
					logging.String(logging.FieldImpact, "publish_date left empty"),
					logging.String(logging.FieldErrorHint, "extend date formats if the site changed"),
				)
			}
		} else {
			result.DatesMissing++
		}
		_, existed := c.store.Get(listing.URL)
		if _, err := c.store.Upsert(listing.URL, patch, opts...); err != nil {
			return err
		}
		result.EpisodesSeen++
		if !existed {
			result.EpisodesAdded++
		}
	}
	c.store.MarkPageProcessed(page)
	if err := c.store.Save(); err != nil {
		return err
	}
	c.logger.Info("listing page processed",
		logging.Int("page", page),
		logging.Int("episodes", len(listings)),
		logging.String(logging.FieldEventType, "page_processed"),
	)
	return nil
}

// pendingPages returns the pages this run must fetch.
func (c *Crawler) pendingPages() map[int]bool {
	incomplete := make(map[int]bool)
	for ep := range c.store.Select(func(ep catalog.Episode) bool {
		return ep.Page > 0 && (ep.Title == "" || ep.PublishDate == "")
	}) {
		incomplete[ep.Page] = true
	}
	pending := make(map[int]bool)
	for page := 1; page <= c.cfg.MaxPages; page++ {
		if c.cfg.Refresh || !c.store.PageProcessed(page) || incomplete[page] {
			pending[page] = true
		}
	}
	return pending
}

func (c *Crawler) probeBaseURL(ctx context.Context) (string, error) {
	var errs []error
	for _, candidate := range c.cfg.BaseURLs {
		if _, err := c.fetcher.GetOnce(ctx, candidate); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			errs = append(errs, err)
			c.logger.Debug("base url probe failed", logging.String("url", candidate), logging.Error(err))
			continue
		}
		c.logger.Info("base url selected", logging.String("url", candidate))
		return candidate, nil
	}
	return "", services.Wrap(services.ErrExternalTool, "discovery", "probe base url",
		"no candidate episodes URL responded", errors.Join(errs...))
}

func (c *Crawler) probePagination(ctx context.Context, base string) string {
	for _, pattern := range c.cfg.PaginationPatterns {
		candidate := PageURL(pattern, base, 2)
		body, err := c.fetcher.GetOnce(ctx, candidate)
		if err == nil && !IsNotFoundPage(body) {
			c.logger.Info("pagination pattern selected", logging.String("pattern", pattern))
			return pattern
		}
		c.logger.Debug("pagination probe failed", logging.String("url", candidate))
	}
	fallback := c.cfg.PaginationPatterns[0]
	c.logger.Info("no pagination pattern confirmed, using default", logging.String("pattern", fallback))
	return fallback
}

// PageURL expands a pagination pattern. {base} is the working base URL; when
// the pattern continues with a slash the base's trailing slash is dropped.
func PageURL(pattern, base string, page int) string {
	if idx := strings.Index(pattern, "{base}"); idx >= 0 {
		rest := pattern[idx+len("{base}"):]
		if strings.HasPrefix(rest, "/") {
			base = strings.TrimRight(base, "/")
		}
	}
	return strings.NewReplacer("{base}", base, "{n}", strconv.Itoa(page)).Replace(pattern)
}

func truncateForLog(value string) string {
	const limit = 80
	runes := []rune(value)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return value
}
