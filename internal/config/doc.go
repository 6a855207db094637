// Package config loads, normalizes, and validates voxarchive configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GEMINI_API_KEY and ASSEMBLYAI_API_KEY. Credentials are resolved lazily so
// stages that do not need a secret never fail for lack of one.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
