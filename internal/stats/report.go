package stats

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"time"

	"voxarchive/internal/catalog"
	"voxarchive/internal/fileutil"
	"voxarchive/internal/logging"
	"voxarchive/internal/media/ffprobe"
	"voxarchive/internal/series"
)

// DefaultCostPerHour is the cloud transcription rate used for projections.
const DefaultCostPerHour = 0.12

// Prober measures audio duration in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFprobe probes durations with the ffprobe binary.
type FFprobe struct {
	Binary string
}

// Duration implements Prober.
func (p FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, p.Binary, path)
	if err != nil {
		return 0, err
	}
	d := result.DurationSeconds()
	if d <= 0 || math.IsNaN(d) {
		return 0, fmt.Errorf("ffprobe reported no duration for %s", path)
	}
	return d, nil
}

// Options configures Build.
type Options struct {
	Store       *catalog.Store
	Series      *series.Map
	Prober      Prober
	CostPerHour float64
	Now         func() time.Time
	Logger      *slog.Logger
}

// Report is the stats.json document.
type Report struct {
	AnalysisDate                     string                `json:"analysis_date"`
	TotalEpisodes                    int                   `json:"total_episodes"`
	EpisodesWithDates                int                   `json:"episodes_with_dates"`
	EpisodesWithFiles                int                   `json:"episodes_with_files"`
	EpisodesWithTranscriptions       int                   `json:"episodes_with_transcriptions"`
	EpisodesWithFailedTranscriptions int                   `json:"episodes_with_failed_transcriptions"`
	FileDetails                      []FileDetail          `json:"file_details"`
	FailedTranscriptions             []FailedTranscription `json:"failed_transcriptions"`
	SeriesBreakdown                  []SeriesCount         `json:"series_breakdown"`
	Summary                          Summary               `json:"summary"`
}

// FileDetail is the probe outcome for one audio file.
type FileDetail struct {
	Title           string  `json:"title"`
	URL             string  `json:"url"`
	FilePath        string  `json:"file_path"`
	FileSizeBytes   int64   `json:"file_size_bytes"`
	DurationSeconds float64 `json:"duration_seconds"`
	Success         bool    `json:"success"`
	Cached          bool    `json:"cached"`
	Error           string  `json:"error,omitempty"`
}

// FailedTranscription is an episode whose recorded transcript is missing on disk.
type FailedTranscription struct {
	Title                           string `json:"title"`
	URL                             string `json:"url"`
	FilePath                        string `json:"file_path"`
	TranscriptionFilePath           string `json:"transcription_file_path,omitempty"`
	TranscriptionFilePathAssemblyAI string `json:"transcription_file_path_assemblyai,omitempty"`
	LocalExists                     bool   `json:"local_exists"`
	AssemblyAIExists                bool   `json:"assemblyai_exists"`
}

// SeriesCount is one row of the series breakdown.
type SeriesCount struct {
	Name     string `json:"name"`
	Episodes int    `json:"episodes"`
}

// Summary aggregates the report.
type Summary struct {
	TotalAudioFiles          int                 `json:"total_audio_files"`
	FailedAnalyses           int                 `json:"failed_analyses"`
	CachedAnalyses           int                 `json:"cached_analyses"`
	NewAnalyses              int                 `json:"new_analyses"`
	DateStatistics           DateStatistics      `json:"date_statistics"`
	TotalSizeBytes           int64               `json:"total_size_bytes"`
	TotalSizeGB              float64             `json:"total_size_gb"`
	TotalSizeFormatted       string              `json:"total_size_formatted"`
	TotalDurationSeconds     float64             `json:"total_duration_seconds"`
	TotalDurationHours       float64             `json:"total_duration_hours"`
	TotalDurationFormatted   string              `json:"total_duration_formatted"`
	AverageDurationSeconds   float64             `json:"average_duration_seconds"`
	AverageDurationFormatted string              `json:"average_duration_formatted"`
	TranscriptionPercentage  float64             `json:"transcription_percentage"`
	TranscriptionCounts      TranscriptionCounts `json:"transcription_counts"`
	CostEstimation           CostEstimation      `json:"cost_estimation"`
	TranscriptionAnalysis    TextAnalysis        `json:"transcription_analysis"`
	SeriesCount              int                 `json:"series_count"`
	IndependentEpisodes      int                 `json:"independent_episodes"`
}

// DateStatistics reports publish date coverage.
type DateStatistics struct {
	EpisodesWithDates    int     `json:"episodes_with_dates"`
	EpisodesWithoutDates int     `json:"episodes_without_dates"`
	DatePercentage       float64 `json:"date_percentage"`
}

// TranscriptionCounts splits transcript coverage by backend.
type TranscriptionCounts struct {
	TotalWithTranscriptions  int `json:"total_with_transcriptions"`
	LocalTranscriptions      int `json:"local_transcriptions"`
	AssemblyAITranscriptions int `json:"assemblyai_transcriptions"`
}

// CostEstimation projects cloud transcription cost.
type CostEstimation struct {
	RatePerHour              float64 `json:"rate_per_hour"`
	EstimatedTotalCost       float64 `json:"estimated_total_cost"`
	EstimatedTranscribedCost float64 `json:"estimated_transcribed_cost"`
	EstimatedRemainingCost   float64 `json:"estimated_remaining_cost"`
	TotalHoursForCosting     float64 `json:"total_hours_for_costing"`
}

// TextAnalysis totals transcript file measurements.
type TextAnalysis struct {
	TotalTranscriptionFiles      int    `json:"total_transcription_files"`
	LocalTranscriptionFiles      int    `json:"local_transcription_files"`
	AssemblyAITranscriptionFiles int    `json:"assemblyai_transcription_files"`
	TotalFileSizeBytes           int64  `json:"total_file_size_bytes"`
	TotalFileSizeFormatted       string `json:"total_file_size_formatted"`
	TotalCharacters              int    `json:"total_characters"`
	TotalTranscriptionCharacters int    `json:"total_transcription_characters"`
	EstimatedTotalTokens         int    `json:"estimated_total_tokens"`
	FailedTranscriptionAnalyses  int    `json:"failed_transcription_analyses"`
}

// Build computes the report. Newly probed durations are written back to the
// catalog and saved after each file.
func Build(ctx context.Context, opts Options) (Report, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	rate := opts.CostPerHour
	if rate <= 0 {
		rate = DefaultCostPerHour
	}

	episodes := opts.Store.Episodes()
	report := Report{
		AnalysisDate:         now().Format(time.RFC3339),
		TotalEpisodes:        len(episodes),
		FileDetails:          []FileDetail{},
		FailedTranscriptions: []FailedTranscription{},
		SeriesBreakdown:      []SeriesCount{},
	}
	summary := &report.Summary

	var (
		totalDuration       float64
		untranscribedLength float64
		totalSize           int64
	)
	for _, ep := range episodes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if ep.PublishDate != "" {
			report.EpisodesWithDates++
		}
		hasLocal := fileutil.Exists(ep.TranscriptionFilePath)
		hasCloud := fileutil.Exists(ep.TranscriptionFilePathAssemblyAI)
		if hasLocal {
			summary.TranscriptionCounts.LocalTranscriptions++
		}
		if hasCloud {
			summary.TranscriptionCounts.AssemblyAITranscriptions++
		}
		if hasLocal || hasCloud {
			report.EpisodesWithTranscriptions++
		}

		if !fileutil.Exists(ep.FilePath) {
			continue
		}
		report.EpisodesWithFiles++
		if (ep.TranscriptionFilePath != "" && !hasLocal) || (ep.TranscriptionFilePathAssemblyAI != "" && !hasCloud) {
			report.FailedTranscriptions = append(report.FailedTranscriptions, FailedTranscription{
				Title:                           ep.Title,
				URL:                             ep.URL,
				FilePath:                        ep.FilePath,
				TranscriptionFilePath:           ep.TranscriptionFilePath,
				TranscriptionFilePathAssemblyAI: ep.TranscriptionFilePathAssemblyAI,
				LocalExists:                     hasLocal,
				AssemblyAIExists:                hasCloud,
			})
		}

		detail, err := probe(ctx, opts, ep, now)
		if err != nil {
			return report, err
		}
		report.FileDetails = append(report.FileDetails, detail)
		switch {
		case !detail.Success:
			summary.FailedAnalyses++
			logging.WarnWithContext(logger, "audio probe failed", "stats_probe_failed",
				logging.String("file", detail.FilePath),
				logging.String(logging.FieldErrorHint, detail.Error),
			)
			continue
		case detail.Cached:
			summary.CachedAnalyses++
		default:
			summary.NewAnalyses++
		}
		summary.TotalAudioFiles++
		totalDuration += detail.DurationSeconds
		totalSize += detail.FileSizeBytes
		if !hasLocal && !hasCloud {
			untranscribedLength += detail.DurationSeconds
		}
	}
	report.EpisodesWithFailedTranscriptions = len(report.FailedTranscriptions)

	summary.DateStatistics = DateStatistics{
		EpisodesWithDates:    report.EpisodesWithDates,
		EpisodesWithoutDates: report.TotalEpisodes - report.EpisodesWithDates,
		DatePercentage:       percent(report.EpisodesWithDates, report.TotalEpisodes),
	}
	summary.TotalSizeBytes = totalSize
	summary.TotalSizeGB = round2(float64(totalSize) / (1 << 30))
	summary.TotalSizeFormatted = FormatSize(totalSize)
	summary.TotalDurationSeconds = totalDuration
	summary.TotalDurationHours = round2(totalDuration / 3600)
	summary.TotalDurationFormatted = FormatDuration(totalDuration)
	if summary.TotalAudioFiles > 0 {
		summary.AverageDurationSeconds = totalDuration / float64(summary.TotalAudioFiles)
	}
	summary.AverageDurationFormatted = FormatDuration(summary.AverageDurationSeconds)
	summary.TranscriptionPercentage = percent(report.EpisodesWithTranscriptions, report.TotalEpisodes)
	summary.TranscriptionCounts.TotalWithTranscriptions = report.EpisodesWithTranscriptions
	summary.CostEstimation = CostEstimation{
		RatePerHour:              rate,
		EstimatedTotalCost:       round2(totalDuration / 3600 * rate),
		EstimatedTranscribedCost: round2((totalDuration - untranscribedLength) / 3600 * rate),
		EstimatedRemainingCost:   round2(untranscribedLength / 3600 * rate),
		TotalHoursForCosting:     round2(totalDuration / 3600),
	}
	summary.TranscriptionAnalysis = analyzeTranscripts(episodes)

	if opts.Series != nil {
		for _, name := range opts.Series.Names() {
			report.SeriesBreakdown = append(report.SeriesBreakdown, SeriesCount{Name: name, Episodes: len(opts.Series.Series[name])})
		}
		slices.SortStableFunc(report.SeriesBreakdown, func(a, b SeriesCount) int {
			return cmp.Compare(b.Episodes, a.Episodes)
		})
		summary.SeriesCount = len(report.SeriesBreakdown)
		summary.IndependentEpisodes = len(opts.Series.Independent)
	}
	return report, nil
}

// probe returns the cached duration when the file size still matches,
// otherwise asks the prober and records the result on the catalog record.
func probe(ctx context.Context, opts Options, ep catalog.Episode, now func() time.Time) (FileDetail, error) {
	detail := FileDetail{Title: ep.Title, URL: ep.URL, FilePath: ep.FilePath}
	info, err := os.Stat(ep.FilePath)
	if err != nil {
		detail.Error = err.Error()
		return detail, nil
	}
	detail.FileSizeBytes = info.Size()

	if meta := ep.AudioMetadata; meta != nil && meta.FileSizeBytes == info.Size() && meta.DurationSeconds > 0 {
		detail.DurationSeconds = meta.DurationSeconds
		detail.Success = true
		detail.Cached = true
		return detail, nil
	}
	if opts.Prober == nil {
		detail.Error = "no duration prober configured"
		return detail, nil
	}
	duration, err := opts.Prober.Duration(ctx, ep.FilePath)
	if err != nil {
		if ctx.Err() != nil {
			return detail, ctx.Err()
		}
		detail.Error = err.Error()
		return detail, nil
	}
	detail.DurationSeconds = duration
	detail.Success = true

	meta := &catalog.AudioMetadata{
		FileSizeBytes:   info.Size(),
		DurationSeconds: duration,
		AnalyzedDate:    now().Format(time.RFC3339),
	}
	if _, err := opts.Store.Upsert(ep.URL, catalog.Patch{AudioMetadata: meta}, catalog.Force()); err != nil {
		return detail, err
	}
	if err := opts.Store.Save(); err != nil {
		return detail, err
	}
	return detail, nil
}

func analyzeTranscripts(episodes []catalog.Episode) TextAnalysis {
	var out TextAnalysis
	add := func(path string, local bool) {
		if !fileutil.Exists(path) {
			return
		}
		analysis, err := AnalyzeTranscript(path)
		if err != nil {
			out.FailedTranscriptionAnalyses++
			return
		}
		out.TotalTranscriptionFiles++
		if local {
			out.LocalTranscriptionFiles++
		} else {
			out.AssemblyAITranscriptionFiles++
		}
		out.TotalFileSizeBytes += analysis.FileSizeBytes
		out.TotalCharacters += analysis.TotalCharacters
		out.TotalTranscriptionCharacters += analysis.TranscriptionCharacters
		out.EstimatedTotalTokens += analysis.EstimatedTokens
	}
	for _, ep := range episodes {
		add(ep.TranscriptionFilePath, true)
		add(ep.TranscriptionFilePathAssemblyAI, false)
	}
	out.TotalFileSizeFormatted = FormatSize(out.TotalFileSizeBytes)
	return out
}

// Write saves the report as indented JSON.
func Write(path string, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}
