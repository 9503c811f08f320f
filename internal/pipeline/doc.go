// Package pipeline runs a source through the engine into event writers.
//
// A Runner owns two goroutines joined by an errgroup: the source reads raw
// records into a buffered channel, and a single processing goroutine decodes,
// filters and classifies them in order. Per-record problems are counted and
// skipped; a source or writer failure stops the run and is reported with the
// last input position handled.
package pipeline
