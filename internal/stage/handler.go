package stage

import (
	"context"
	"log/slog"
	"time"

	"voxarchive/internal/catalog"
)

// Handler is a record-level pipeline stage driven by RunWorklist.
type Handler interface {
	// Name labels the stage in logs.
	Name() string
	// Needs reports whether ep still lacks this stage's output.
	Needs(ep catalog.Episode) bool
	// Process does the stage's work for one episode. A non-fatal error leaves
	// the record unchanged and is counted as a failure.
	Process(ctx context.Context, ep catalog.Episode) (Outcome, error)
}

// Outcome is the result of processing one record.
type Outcome struct {
	Patch catalog.Patch
	// Force replaces existing values instead of filling empty ones.
	Force bool
	// Repaired marks a record fixed from existing on-disk output.
	Repaired bool
	// Delay is waited after the record has been saved.
	Delay time.Duration
}

// FailurePacer is implemented by handlers that wait after a failed record.
type FailurePacer interface {
	FailureDelay() time.Duration
}

// LoggerAware handlers receive the run-scoped logger before processing.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
