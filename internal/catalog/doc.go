// Package catalog owns the persisted episode collection (episodes.json).
//
// Every stage reads and writes episodes exclusively through a Store:
// Open loads the file (or starts empty), Upsert merges a Patch into the
// record keyed by URL, Select yields matching records, and Save replaces the
// file atomically. Upsert only fills empty fields unless the caller passes
// Force, so stages never clobber values owned by another stage.
package catalog
