// Package jobs runs the asynchronous enrichment pipeline: thumbnail
// generation, EXIF extraction, and captioning. Work is queued in the
// database per (kind, content hash) and drained by a polling worker pool,
// so enrichment survives daemon restarts and never blocks an upload.
package jobs
