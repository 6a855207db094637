package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voxarchive/internal/audiolinks"
	"voxarchive/internal/catalog"
	"voxarchive/internal/classify"
	"voxarchive/internal/config"
	"voxarchive/internal/discovery"
	"voxarchive/internal/download"
	"voxarchive/internal/httpfetch"
	"voxarchive/internal/logging"
	"voxarchive/internal/services/assemblyai"
	"voxarchive/internal/services/llm"
	"voxarchive/internal/services/whisperx"
	"voxarchive/internal/stage"
	"voxarchive/internal/stageexec"
	"voxarchive/internal/transcribe"
)

// classifyDelay spaces classifier calls.
const classifyDelay = time.Second

type stageBody func(ctx context.Context, cfg *config.Config, store *catalog.Store, logger *slog.Logger) ([]logging.Attr, error)

func newStageCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newDiscoverCommand(ctx),
		newResolveCommand(ctx),
		newDownloadCommand(ctx),
		newTranscribeCommand(ctx),
		newClassifyCommand(ctx),
	}
}

// runStage executes body under the stage lock and prints the completion
// counts to stdout.
func (c *commandContext) runStage(cmd *cobra.Command, name string, body stageBody) error {
	summary, err := c.execStage(cmd, name, body)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatSummary(name, summary))
	return nil
}

// execStage opens the catalog while holding the stage lock and runs body.
func (c *commandContext) execStage(cmd *cobra.Command, name string, body stageBody) ([]logging.Attr, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	var summary []logging.Attr
	err = stageexec.Run(cmd.Context(), stageexec.Options{
		Logger:    logger,
		LockPath:  cfg.LockPath(),
		StageName: name,
	}, func(ctx context.Context, logger *slog.Logger) ([]logging.Attr, error) {
		store, err := openStageCatalog(cfg, name)
		if err != nil {
			return nil, err
		}
		summary, err = body(ctx, cfg, store, logger)
		return summary, err
	})
	return summary, err
}

// openStageCatalog lets discover start from nothing; every later stage
// needs the catalog discover wrote.
func openStageCatalog(cfg *config.Config, name string) (*catalog.Store, error) {
	if name == "discover" {
		return catalog.Open(cfg.CatalogPath())
	}
	return catalog.OpenExisting(cfg.CatalogPath())
}

func formatSummary(name string, attrs []logging.Attr) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString(":")
	for _, attr := range attrs {
		fmt.Fprintf(&b, " %s=%s", attr.Key, attr.Value.String())
	}
	return b.String()
}

func worklist(handler stage.Handler) stageBody {
	return func(ctx context.Context, _ *config.Config, store *catalog.Store, logger *slog.Logger) ([]logging.Attr, error) {
		counts, err := stage.RunWorklist(ctx, store, handler, logger, httpfetch.Sleep)
		return counts.Attrs(), err
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func siteClient(cfg *config.Config, timeoutSeconds int) *httpfetch.Client {
	return httpfetch.New(httpfetch.Config{
		UserAgent:  cfg.Site.UserAgent,
		Timeout:    seconds(timeoutSeconds),
		RetryDelay: seconds(cfg.Site.RetryDelay),
	})
}

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var refresh bool
	var feedURL string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Crawl the episode listing and record new episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runStage(cmd, "discover", func(runCtx context.Context, cfg *config.Config, store *catalog.Store, logger *slog.Logger) ([]logging.Attr, error) {
				fetcher := siteClient(cfg, cfg.Site.RequestTimeout)
				crawler := discovery.NewCrawler(discovery.Config{
					Origin:                 cfg.Site.Origin,
					BaseURLs:               cfg.Site.BaseURLs,
					PaginationPatterns:     cfg.Site.PaginationPatterns,
					MaxPages:               cfg.Site.MaxPages,
					PageDelay:              seconds(cfg.Site.PageDelay),
					MaxConsecutiveFailures: cfg.Site.MaxConsecutiveFailures,
					Refresh:                refresh,
				}, fetcher, store, logger)
				result, err := crawler.Run(runCtx)
				attrs := []logging.Attr{
					logging.Int("pages_fetched", result.PagesFetched),
					logging.Int("pages_skipped", result.PagesSkipped),
					logging.Int("pages_failed", result.PagesFailed),
					logging.Int("episodes_seen", result.EpisodesSeen),
					logging.Int("episodes_added", result.EpisodesAdded),
					logging.Int("dates_missing", result.DatesMissing),
					logging.String("stop_reason", result.StopReason),
				}
				if err != nil {
					return attrs, err
				}

				feed := strings.TrimSpace(feedURL)
				if feed == "" {
					feed = cfg.Site.FeedURL
				}
				if feed == "" {
					return attrs, nil
				}
				backfill, err := discovery.BackfillFromFeed(runCtx, fetcher, store, feed, logger)
				if err != nil {
					return attrs, err
				}
				return append(attrs,
					logging.Int("feed_items", backfill.Items),
					logging.Int("feed_matched", backfill.Matched),
					logging.Int("feed_updated", backfill.Updated),
				), nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-fetch every page and overwrite titles and dates")
	cmd.Flags().StringVar(&feedURL, "feed", "", "RSS feed used to backfill missing titles, dates and audio links")
	return cmd
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Find the audio link on each episode page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runStage(cmd, "resolve", func(runCtx context.Context, cfg *config.Config, store *catalog.Store, logger *slog.Logger) ([]logging.Attr, error) {
				resolver := audiolinks.NewResolver(siteClient(cfg, cfg.Audio.ResolveTimeout), seconds(cfg.Audio.ResolveDelay))
				return worklist(resolver)(runCtx, cfg, store, logger)
			})
		},
	}
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download episode audio into the catalog directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runStage(cmd, "download", func(runCtx context.Context, cfg *config.Config, store *catalog.Store, logger *slog.Logger) ([]logging.Attr, error) {
				fetcher := download.NewFetcher(download.Config{
					AudioDir:      cfg.Paths.AudioDir,
					HeaderTimeout: seconds(cfg.Audio.DownloadTimeout),
					Delay:         seconds(cfg.Audio.DownloadDelay),
				}, siteClient(cfg, cfg.Audio.DownloadTimeout))
				return worklist(fetcher)(runCtx, cfg, store, logger)
			})
		},
	}
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var backendName string

	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Transcribe downloaded audio with speaker labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runStage(cmd, "transcribe", func(runCtx context.Context, cfg *config.Config, store *catalog.Store, logger *slog.Logger) ([]logging.Attr, error) {
				name := strings.TrimSpace(backendName)
				if name == "" {
					name = cfg.Transcription.Backend
				}
				backend, err := transcribe.BackendFor(name)
				if err != nil {
					return nil, err
				}
				engine, err := newTranscriber(cfg, backend)
				if err != nil {
					return nil, err
				}
				attrs, err := worklist(transcribe.NewStage(backend, engine))(runCtx, cfg, store, logger)
				return append(attrs, logging.String("backend", backend.Name)), err
			})
		},
	}
	cmd.Flags().StringVar(&backendName, "backend", "", "Transcription backend: local (WhisperX) or cloud (AssemblyAI)")
	return cmd
}

// newTranscriber resolves the backend credential up front so a missing key
// fails the run before any episode is touched.
func newTranscriber(cfg *config.Config, backend transcribe.Backend) (transcribe.Transcriber, error) {
	switch backend.Name {
	case config.BackendCloud:
		key, err := cfg.AssemblyAIKey()
		if err != nil {
			return nil, err
		}
		client := assemblyai.NewClient(assemblyai.Config{
			APIKey:       key,
			BaseURL:      cfg.Transcription.AssemblyAIBaseURL,
			Language:     cfg.Transcription.Language,
			PollInterval: seconds(cfg.Transcription.AssemblyAIPollInterval),
		})
		return transcribe.NewAssemblyAIEngine(client), nil
	default:
		token, err := cfg.HuggingFaceToken()
		if err != nil {
			return nil, err
		}
		service := whisperx.NewService(whisperx.Config{
			Model:       cfg.Transcription.WhisperXModel,
			CUDAEnabled: cfg.Transcription.WhisperXCUDAEnabled,
			Language:    cfg.Transcription.Language,
			HFToken:     token,
		})
		return transcribe.NewWhisperXEngine(service, cfg.Transcription.WhisperXWorkDir), nil
	}
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Assign transcribed episodes to series",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runStage(cmd, "classify", func(runCtx context.Context, cfg *config.Config, store *catalog.Store, logger *slog.Logger) ([]logging.Attr, error) {
				key, err := cfg.LLMAPIKey()
				if err != nil {
					return nil, err
				}
				client := llm.NewClient(llm.Config{
					APIKey:         key,
					BaseURL:        cfg.LLM.BaseURL,
					Model:          cfg.LLM.Model,
					TimeoutSeconds: cfg.LLM.TimeoutSeconds,
				})
				counts, err := classify.Run(runCtx, classify.Options{
					Store:      store,
					SeriesPath: cfg.SeriesPath(),
					Classifier: classify.NewLLMClassifier(client, cfg.LLM.TranscriptWindow),
					Logger:     logger,
					Delay:      classifyDelay,
					Sleep:      httpfetch.Sleep,
				})
				return counts.Attrs(), err
			})
		},
	}
}
