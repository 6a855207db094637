// Package ffprobe wraps ffprobe's JSON output for audio files.
//
// Inspect runs the binary and decodes container and stream metadata;
// Result helpers parse the string-typed numeric fields ffprobe emits.
package ffprobe
