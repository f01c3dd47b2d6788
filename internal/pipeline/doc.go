// Package pipeline collects PageVitals data for the configured websites.
//
// Each website is processed by a Pipeline: an ordered list of steps that
// fill a Collection (the website's pages, then optionally their timelines).
// BatchProcessor runs one pipeline per website through an errgroup with a
// concurrency limit and returns the collections in website order.
//
// The first failing step aborts the whole batch. Callers write output only
// after ProcessBatch succeeds, so a failed run never leaves a partial file.
package pipeline
