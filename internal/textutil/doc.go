// Package textutil provides small text helpers shared by the pipeline stages:
// filename sanitization, whitespace normalization, rune-safe truncation, and
// Unicode case folding for series name comparison.
package textutil
