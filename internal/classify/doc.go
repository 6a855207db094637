// Package classify groups transcribed episodes into named series.
//
// Run walks transcribed episodes in page order, asks a Classifier for each
// episode not yet present in the series map and records the answer,
// persisting series.json after every episode. LLMClassifier is the
// production Classifier; it prompts a chat model with the current and
// previous transcripts plus the series map so far.
package classify
