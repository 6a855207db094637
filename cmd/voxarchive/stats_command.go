package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"voxarchive/internal/catalog"
	"voxarchive/internal/config"
	"voxarchive/internal/logging"
	"voxarchive/internal/series"
	"voxarchive/internal/stats"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Analyze catalog coverage, audio duration and transcription cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report stats.Report
			_, err := ctx.execStage(cmd, "stats", func(runCtx context.Context, cfg *config.Config, store *catalog.Store, logger *slog.Logger) ([]logging.Attr, error) {
				m, err := series.Load(cfg.SeriesPath())
				if err != nil {
					return nil, err
				}
				report, err = stats.Build(runCtx, stats.Options{
					Store:       store,
					Series:      m,
					Prober:      stats.FFprobe{Binary: cfg.FFprobeBinary()},
					CostPerHour: cfg.Stats.CostPerHour,
					Logger:      logger,
				})
				if err != nil {
					return nil, err
				}
				if err := stats.Write(cfg.StatsPath(), report); err != nil {
					return nil, err
				}
				return []logging.Attr{
					logging.Int("episodes", report.TotalEpisodes),
					logging.Int("audio_files", report.Summary.TotalAudioFiles),
					logging.Int("new_analyses", report.Summary.NewAnalyses),
					logging.Int("failed_analyses", report.Summary.FailedAnalyses),
					logging.Float64("estimated_remaining_cost", report.Summary.CostEstimation.EstimatedRemainingCost),
					logging.String("stats_path", cfg.StatsPath()),
				}, nil
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			renderStats(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}

func renderStats(out io.Writer, report stats.Report) {
	s := report.Summary
	count := strconv.Itoa
	right := []columnAlignment{alignLeft, alignRight, alignRight}

	writeHeading(out, "Catalog")
	fmt.Fprintln(out, renderTable(
		[]string{"Metric", "Count", "Share"},
		[][]string{
			{"Episodes", count(report.TotalEpisodes), ""},
			{"With publish date", count(s.DateStatistics.EpisodesWithDates), formatPercent(s.DateStatistics.DatePercentage)},
			{"With audio file", count(report.EpisodesWithFiles), ""},
			{"With transcript", count(report.EpisodesWithTranscriptions), formatPercent(s.TranscriptionPercentage)},
			{"Local transcripts", count(s.TranscriptionCounts.LocalTranscriptions), ""},
			{"AssemblyAI transcripts", count(s.TranscriptionCounts.AssemblyAITranscriptions), ""},
			{"Missing transcript files", count(report.EpisodesWithFailedTranscriptions), ""},
		},
		right,
	))

	writeHeading(out, "Audio")
	fmt.Fprintln(out, renderTable(
		[]string{"Metric", "Value"},
		[][]string{
			{"Analyzed files", count(s.TotalAudioFiles)},
			{"Cached / new / failed", fmt.Sprintf("%d / %d / %d", s.CachedAnalyses, s.NewAnalyses, s.FailedAnalyses)},
			{"Total size", s.TotalSizeFormatted},
			{"Total duration", s.TotalDurationFormatted},
			{"Average duration", s.AverageDurationFormatted},
		},
		[]columnAlignment{alignLeft, alignRight},
	))

	writeHeading(out, "Transcription cost")
	fmt.Fprintln(out, renderTable(
		[]string{"Metric", "Value"},
		[][]string{
			{"Rate per hour", fmt.Sprintf("$%.2f", s.CostEstimation.RatePerHour)},
			{"Hours", fmt.Sprintf("%.2f", s.CostEstimation.TotalHoursForCosting)},
			{"Estimated total", fmt.Sprintf("$%.2f", s.CostEstimation.EstimatedTotalCost)},
			{"Estimated transcribed", fmt.Sprintf("$%.2f", s.CostEstimation.EstimatedTranscribedCost)},
			{"Estimated remaining", fmt.Sprintf("$%.2f", s.CostEstimation.EstimatedRemainingCost)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))

	t := s.TranscriptionAnalysis
	writeHeading(out, "Transcript text")
	fmt.Fprintln(out, renderTable(
		[]string{"Metric", "Value"},
		[][]string{
			{"Files", count(t.TotalTranscriptionFiles)},
			{"Total size", t.TotalFileSizeFormatted},
			{"Characters", count(t.TotalCharacters)},
			{"Utterance characters", count(t.TotalTranscriptionCharacters)},
			{"Estimated tokens", count(t.EstimatedTotalTokens)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))

	if len(report.SeriesBreakdown) > 0 || s.IndependentEpisodes > 0 {
		rows := make([][]string, 0, len(report.SeriesBreakdown)+1)
		for _, entry := range report.SeriesBreakdown {
			rows = append(rows, []string{entry.Name, count(entry.Episodes)})
		}
		rows = append(rows, []string{series.Independent, count(s.IndependentEpisodes)})
		writeHeading(out, fmt.Sprintf("Series (%d)", s.SeriesCount))
		fmt.Fprintln(out, renderTable([]string{"Series", "Episodes"}, rows, []columnAlignment{alignLeft, alignRight}))
	}
}
