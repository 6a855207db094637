// Package services defines shared utilities consumed by the pipeline stages
// and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp stage names, run correlation identifiers, and
//     the episode currently being processed for logging.
//   - Structured error markers plus the Wrap helper. IsFatal separates setup
//     and data errors, which abort a run, from per-record failures, which are
//     counted and skipped.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
