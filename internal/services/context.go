package services

import "context"

type contextKey string

const (
	stageKey      contextKey = "stage"
	requestIDKey  contextKey = "request_id"
	episodeURLKey contextKey = "episode_url"
)

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a run correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithEpisodeURL annotates context with the catalog key of the episode being processed.
func WithEpisodeURL(ctx context.Context, url string) context.Context {
	if url == "" {
		return ctx
	}
	return context.WithValue(ctx, episodeURLKey, url)
}

// EpisodeURLFromContext returns the episode URL if present.
func EpisodeURLFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(episodeURLKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
