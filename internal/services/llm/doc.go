// Package llm is a small client for OpenAI-compatible chat completion
// endpoints, used by series classification against Gemini.
//
// CompleteJSON sends a system and user prompt with JSON response mode and
// returns the raw content. DecodeLLMJSON tolerates code fences and leading
// prose. Requests are retried on 408, 429, 5xx, transport errors and empty
// completions with exponential backoff; Retry-After is honoured up to the
// backoff ceiling.
package llm
