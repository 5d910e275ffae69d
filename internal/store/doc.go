// Package store manages picvault persistence backed by SQLite.
//
// It holds four relations: metadata (one row per distinct content hash),
// uploads (the append-only ledger, one row per upload attempt),
// upload_timings (attempt start/end pairs feeding the stats snapshot), and
// jobs (the enrichment work queue). The metadata upsert is the contended
// path: its insert-or-fetch is atomic so exactly one concurrent uploader of
// identical content observes the row as new.
package store
