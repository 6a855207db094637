// Package whisperx runs WhisperX with speaker diarization through uvx and
// loads the segments it writes.
//
// The command runner is injectable so tests can emulate WhisperX by writing
// the JSON output themselves.
package whisperx
