// Package transcribe turns downloaded episode audio into speaker-labelled
// text transcripts.
//
// Two engines implement Transcriber: WhisperX run locally and AssemblyAI in
// the cloud. The stage handler is shared; a Backend descriptor supplies the
// engine label, the transcript file suffix and the catalog field each
// backend owns. Transcripts are written beside the audio file.
package transcribe
