package store

import "time"

// MetadataRecord is the shared per-content row keyed by SHA-256. Intrinsic
// fields (dimensions, format, size) are written once on first sighting and
// never overwritten; enrichment fields start empty and are filled by jobs.
type MetadataRecord struct {
	SHA256      string
	Width       int
	Height      int
	Format      string
	SizeBytes   int64
	FirstUpload time.Time
	ExifJSON    string
	Caption     string
}

// UploadRecord is one immutable ledger row per upload attempt.
type UploadRecord struct {
	UploadID       string
	OriginalName   string
	ProcessedAt    time.Time
	ImagePath      string
	MetadataSHA256 string
	ErrorMessage   string

	// Metadata is populated on reads that join against the metadata table.
	// Nil for failed uploads.
	Metadata *MetadataRecord
}

// Succeeded reports whether the attempt was recorded as a success.
func (u UploadRecord) Succeeded() bool {
	return u.MetadataSHA256 != ""
}

// EnrichmentField names a metadata column that enrichment jobs may write.
// Fields are independent: jobs for different fields never clobber each other.
type EnrichmentField string

const (
	FieldExifJSON EnrichmentField = "exif_json"
	FieldCaption  EnrichmentField = "caption"
)

// StatsSnapshot is the derived read-side aggregation over the upload ledger.
type StatsSnapshot struct {
	Total              int     `json:"total"`
	Failed             int     `json:"failed"`
	SuccessRate        string  `json:"success_rate"`
	AvgDurationSeconds float64 `json:"average_processing_time_seconds"`
}

// JobStatus represents the lifecycle of an enrichment job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is a queued enrichment task keyed by content hash.
type Job struct {
	ID        int64
	Kind      string
	SHA256    string
	Status    JobStatus
	Attempts  int
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
