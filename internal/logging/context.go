package logging

import (
	"context"
	"log/slog"

	"voxarchive/internal/services"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldCorrelationID is the structured logging key for the per-run identifier.
	FieldCorrelationID = "correlation_id"
	// FieldEpisodeURL is the structured logging key for the catalog key of an episode.
	FieldEpisodeURL = "episode_url"
	// FieldEventType classifies a log line for filtering (stage_start, fetch_failed, ...).
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to an operator reading a warning.
	FieldErrorHint = "error_hint"
	// FieldImpact states the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if url, ok := services.EpisodeURLFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldEpisodeURL, url))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
