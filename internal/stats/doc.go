// Package stats builds the stats.json report: catalog coverage, audio
// duration and size totals, transcript text analysis, a transcription cost
// projection and a per-series breakdown.
//
// Audio durations are probed once and cached on the catalog record in
// audio_metadata; the cache is trusted while the file size is unchanged.
package stats
