package discovery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"voxarchive/internal/catalog"
	"voxarchive/internal/logging"
)

type fakeFetcher struct {
	pages  map[string]string
	calls  []string
	pauses int
}

func (f *fakeFetcher) Get(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	body, ok := f.pages[url]
	if !ok {
		return nil, errors.New("http 404")
	}
	return []byte(body), nil
}

func (f *fakeFetcher) GetOnce(ctx context.Context, url string) ([]byte, error) {
	return f.Get(ctx, url)
}

func (f *fakeFetcher) Pause(context.Context, time.Duration) error {
	f.pauses++
	return nil
}

const base = "https://site.test/episodes/"

func listingPage(page, count int) string {
	html := "<html><body>"
	for i := 1; i <= count; i++ {
		html += fmt.Sprintf(`<div class="card-body"><h3><a href="/episodes/p%d-e%d">Episode %d.%d</a></h3><small>June %d, 2025</small><a class="mt-4" href="/episodes/p%d-e%d">Listen</a></div>`,
			page, i, page, i, i, page, i)
	}
	return html + "</body></html>"
}

func newTestCrawler(t *testing.T, fetcher *fakeFetcher, refresh bool) (*Crawler, *catalog.Store) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "episodes.json"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{
		Origin:                 "https://site.test",
		BaseURLs:               []string{"https://missing.test/episodes/", base},
		PaginationPatterns:     []string{"{base}/page/{n}/", "{base}?page={n}"},
		MaxPages:               10,
		MaxConsecutiveFailures: 3,
		Refresh:                refresh,
	}
	return NewCrawler(cfg, fetcher, store, logging.NewNop()), store
}

func TestCrawlerStopsAtEmptyPageWithoutMarkingIt(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		base:             listingPage(1, 2),
		base + "?page=2": listingPage(2, 2),
		base + "?page=3": listingPage(3, 2),
		base + "?page=4": listingPage(4, 2),
		base + "?page=5": "<html><body><p>No more episodes</p></body></html>",
		base + "?page=6": listingPage(6, 2),
	}}
	crawler, store := newTestCrawler(t, fetcher, false)

	result, err := crawler.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := store.ProcessedPages(); fmt.Sprint(got) != "[1 2 3 4]" {
		t.Fatalf("unexpected processed pages %v", got)
	}
	if store.Len() != 8 || result.EpisodesAdded != 8 {
		t.Fatalf("expected 8 episodes, got %d (added %d)", store.Len(), result.EpisodesAdded)
	}
	if result.StopReason != "empty page 5" {
		t.Fatalf("unexpected stop reason %q", result.StopReason)
	}
	ep, ok := store.Get("https://site.test/episodes/p3-e2")
	if !ok || ep.Page != 3 || ep.Title != "Episode 3.2" || ep.PublishDate != "2025-06-02" {
		t.Fatalf("unexpected record %+v", ep)
	}
	for _, call := range fetcher.calls {
		if call == base+"?page=6" {
			t.Fatal("crawl must not continue past the empty page")
		}
	}
}

func TestCrawlerSkipsCompleteProcessedPages(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		base:             listingPage(1, 1),
		base + "?page=2": listingPage(2, 1),
		base + "?page=3": "",
	}}
	crawler, store := newTestCrawler(t, fetcher, false)
	if _, err := crawler.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	fetcher.calls = nil
	second, _ := newTestCrawlerWithStore(t, fetcher, store)
	result, err := second.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, call := range fetcher.calls {
		if call == base+"?page=2" {
			t.Fatal("complete processed page must not be re-fetched")
		}
	}
	if result.PagesSkipped != 2 {
		t.Fatalf("expected pages 1 and 2 skipped, got %+v", result)
	}
	if store.Len() != 2 {
		t.Fatalf("re-runs must not duplicate records, got %d", store.Len())
	}
}

func newTestCrawlerWithStore(t *testing.T, fetcher *fakeFetcher, store *catalog.Store) (*Crawler, *catalog.Store) {
	t.Helper()
	cfg := Config{
		Origin:             "https://site.test",
		BaseURLs:           []string{base},
		PaginationPatterns: []string{"{base}?page={n}"},
		MaxPages:           10,
	}
	return NewCrawler(cfg, fetcher, store, logging.NewNop()), store
}

func TestCrawlerRefetchesPageMissingPublishDate(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		base:             listingPage(1, 1),
		base + "?page=2": "",
	}}
	store, err := catalog.Open(filepath.Join(t.TempDir(), "episodes.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Upsert("https://site.test/episodes/p1-e1", catalog.Patch{Page: 1, Title: "Kept Title"}); err != nil {
		t.Fatal(err)
	}
	store.MarkPageProcessed(1)

	crawler, _ := newTestCrawlerWithStore(t, fetcher, store)
	if _, err := crawler.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	ep, _ := store.Get("https://site.test/episodes/p1-e1")
	if ep.Title != "Kept Title" {
		t.Fatalf("existing title must be kept, got %q", ep.Title)
	}
	if ep.PublishDate != "2025-06-01" {
		t.Fatalf("missing date must be filled, got %q", ep.PublishDate)
	}
	if store.Len() != 1 {
		t.Fatalf("expected a single record, got %d", store.Len())
	}
}

func TestCrawlerRefreshOverwrites(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		base:             listingPage(1, 1),
		base + "?page=2": "",
	}}
	store, err := catalog.Open(filepath.Join(t.TempDir(), "episodes.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Upsert("https://site.test/episodes/p1-e1", catalog.Patch{Page: 1, Title: "Old", PublishDate: "2000-01-01"}); err != nil {
		t.Fatal(err)
	}
	store.MarkPageProcessed(1)

	cfg := Config{Origin: "https://site.test", BaseURLs: []string{base}, MaxPages: 2, Refresh: true}
	if _, err := NewCrawler(cfg, fetcher, store, logging.NewNop()).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	ep, _ := store.Get("https://site.test/episodes/p1-e1")
	if ep.Title != "Episode 1.1" || ep.PublishDate != "2025-06-01" {
		t.Fatalf("refresh must overwrite discovery fields, got %+v", ep)
	}
}

func TestCrawlerStopsAfterConsecutiveFailures(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		base: listingPage(1, 1),
	}}
	crawler, store := newTestCrawler(t, fetcher, false)
	result, err := crawler.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.PagesFailed != 3 {
		t.Fatalf("expected 3 failed pages, got %+v", result)
	}
	if got := store.ProcessedPages(); fmt.Sprint(got) != "[1]" {
		t.Fatalf("unexpected processed pages %v", got)
	}
}

func TestCrawlerFailsWithoutBaseURL(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{}}
	crawler, _ := newTestCrawler(t, fetcher, false)
	if _, err := crawler.Run(context.Background()); err == nil {
		t.Fatal("expected error when no base URL responds")
	}
}
