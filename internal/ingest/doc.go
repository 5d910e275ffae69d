// Package ingest runs the synchronous upload path: validation, content
// addressing, dedup against the metadata registry, durable storage of the
// original, the ledger write, and enrichment dispatch for first sightings.
package ingest
