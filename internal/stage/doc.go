// Package stage holds the shared record-level stage contract and the
// worklist runner that every per-episode stage (audio link resolution,
// download, transcription) is driven by.
//
// RunWorklist selects the records a Handler still needs, processes them one
// at a time, merges each Outcome into the catalog, and saves after every
// record so an interrupted run loses at most the episode in flight.
package stage
