// Package logging assembles structured slog loggers and formatting helpers used
// across voxarchive stages.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can tag log lines
// with the stage name, run correlation ID, and episode URL. Console output is
// colourised only when it goes straight to a terminal. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
