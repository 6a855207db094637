package stage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voxarchive/internal/catalog"
	"voxarchive/internal/logging"
	"voxarchive/internal/services"
	"voxarchive/internal/stage"
)

type linkHandler struct {
	calls    []string
	failOn   map[string]error
	delay    time.Duration
	failWait time.Duration
}

func (h *linkHandler) Name() string { return "resolve" }

func (h *linkHandler) Needs(ep catalog.Episode) bool { return ep.AudioLink == "" }

func (h *linkHandler) Process(_ context.Context, ep catalog.Episode) (stage.Outcome, error) {
	h.calls = append(h.calls, ep.URL)
	if err := h.failOn[ep.URL]; err != nil {
		return stage.Outcome{}, err
	}
	return stage.Outcome{Patch: catalog.Patch{AudioLink: ep.URL + ".mp3"}, Delay: h.delay}, nil
}

func (h *linkHandler) FailureDelay() time.Duration { return h.failWait }

func seedStore(t *testing.T, urls ...string) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "episodes.json"))
	if err != nil {
		t.Fatal(err)
	}
	for i, url := range urls {
		if _, err := store.Upsert(url, catalog.Patch{Page: i + 1}); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestRunWorklistProcessesOnlyNeededRecords(t *testing.T) {
	store := seedStore(t, "a", "b", "c")
	if _, err := store.Upsert("b", catalog.Patch{AudioLink: "existing.mp3"}); err != nil {
		t.Fatal(err)
	}

	var slept []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	handler := &linkHandler{delay: time.Second}
	counts, err := stage.RunWorklist(context.Background(), store, handler, logging.NewNop(), sleep)
	if err != nil {
		t.Fatalf("RunWorklist: %v", err)
	}
	if counts.Pending != 2 || counts.Processed != 2 || counts.Failed != 0 {
		t.Fatalf("unexpected counts %+v", counts)
	}
	if strings.Join(handler.calls, ",") != "a,c" {
		t.Fatalf("unexpected calls %v", handler.calls)
	}
	if len(slept) != 1 {
		t.Fatalf("expected a delay between records only, got %v", slept)
	}
	ep, _ := store.Get("b")
	if ep.AudioLink != "existing.mp3" {
		t.Fatalf("satisfied record must be untouched, got %q", ep.AudioLink)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"audio_link": "c.mp3"`) {
		t.Fatalf("expected results persisted:\n%s", data)
	}

	// Second run finds nothing to do.
	handler.calls = nil
	counts, err = stage.RunWorklist(context.Background(), store, handler, logging.NewNop(), sleep)
	if err != nil || counts.Pending != 0 || len(handler.calls) != 0 {
		t.Fatalf("expected idempotent re-run, counts=%+v calls=%v err=%v", counts, handler.calls, err)
	}
}

func TestRunWorklistCountsFailuresAndContinues(t *testing.T) {
	store := seedStore(t, "a", "b", "c")
	handler := &linkHandler{
		failOn:   map[string]error{"b": services.Wrap(services.ErrNotFound, "resolve", "extract", "no audio", nil)},
		failWait: time.Second,
	}
	var slept int
	sleep := func(context.Context, time.Duration) error { slept++; return nil }

	counts, err := stage.RunWorklist(context.Background(), store, handler, logging.NewNop(), sleep)
	if err != nil {
		t.Fatalf("RunWorklist: %v", err)
	}
	if counts.Processed != 2 || counts.Failed != 1 {
		t.Fatalf("unexpected counts %+v", counts)
	}
	if slept != 1 {
		t.Fatalf("expected one failure delay, got %d", slept)
	}
	ep, _ := store.Get("b")
	if ep.AudioLink != "" {
		t.Fatal("failed record must be unchanged")
	}
}

func TestRunWorklistStopsOnFatalError(t *testing.T) {
	store := seedStore(t, "a", "b")
	handler := &linkHandler{failOn: map[string]error{
		"a": services.Wrap(services.ErrConfiguration, "transcribe", "credential", "missing key", nil),
	}}
	_, err := stage.RunWorklist(context.Background(), store, handler, logging.NewNop(), nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(handler.calls) != 1 {
		t.Fatalf("expected run to stop after first record, got %v", handler.calls)
	}
}

func TestRunWorklistHonoursCancellation(t *testing.T) {
	store := seedStore(t, "a", "b")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	handler := &linkHandler{}
	if _, err := stage.RunWorklist(ctx, store, handler, logging.NewNop(), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(handler.calls) != 0 {
		t.Fatal("no records should be processed after cancellation")
	}
}

type cancellingHandler struct {
	*linkHandler
	after  int
	cancel context.CancelFunc
}

func (h *cancellingHandler) Process(ctx context.Context, ep catalog.Episode) (stage.Outcome, error) {
	outcome, err := h.linkHandler.Process(ctx, ep)
	if len(h.calls) == h.after {
		h.cancel()
	}
	return outcome, err
}

func TestRunWorklistResumesAfterInterruption(t *testing.T) {
	store := seedStore(t, "a", "b", "c", "d", "e")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := &cancellingHandler{linkHandler: &linkHandler{}, after: 2, cancel: cancel}
	counts, err := stage.RunWorklist(ctx, store, handler, logging.NewNop(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if counts.Processed != 2 {
		t.Fatalf("expected 2 processed before interruption, got %+v", counts)
	}

	reopened, err := catalog.Open(store.Path())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	var persisted int
	for ep := range reopened.Select(nil) {
		if ep.AudioLink != "" {
			persisted++
		}
	}
	if persisted != 2 {
		t.Fatalf("expected 2 records persisted, got %d", persisted)
	}

	resumed := &linkHandler{}
	counts, err = stage.RunWorklist(context.Background(), reopened, resumed, logging.NewNop(), nil)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if counts.Pending != 3 || counts.Processed != 3 {
		t.Fatalf("expected resumed run to finish the remaining 3, got %+v", counts)
	}
	if strings.Join(resumed.calls, ",") != "c,d,e" {
		t.Fatalf("unexpected resumed calls %v", resumed.calls)
	}
}

func TestHealthHelpers(t *testing.T) {
	checks := []stage.Health{stage.Healthy("a"), stage.FromError("b", nil)}
	if !stage.AllReady(checks) {
		t.Fatal("expected all ready")
	}
	optional := stage.FromError("ffprobe", errors.New("binary not found"))
	optional.Optional = true
	checks = append(checks, optional)
	if !stage.AllReady(checks) {
		t.Fatal("optional failures must not block readiness")
	}
	checks = append(checks, stage.FromError("c", errors.New("missing ffprobe")))
	if stage.AllReady(checks) {
		t.Fatal("expected not ready")
	}
	if checks[3].Detail != "missing ffprobe" {
		t.Fatalf("unexpected detail %q", checks[3].Detail)
	}
}
