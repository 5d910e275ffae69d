package api

import (
	"encoding/json"
	"time"

	"picvault/internal/store"
)

// Envelope is the uniform response wrapper.
type Envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

// Image is the wire form of one upload attempt.
type Image struct {
	ImageID      string      `json:"image_id"`
	OriginalName string      `json:"original_name"`
	ProcessedAt  string      `json:"processed_at"`
	Duplicate    bool        `json:"duplicate,omitempty"`
	Error        string      `json:"error,omitempty"`
	Metadata     *Metadata   `json:"metadata,omitempty"`
	Thumbnails   *Thumbnails `json:"thumbnails,omitempty"`
}

// Metadata is the wire form of the shared content record.
type Metadata struct {
	SHA256      string          `json:"sha256"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	Format      string          `json:"format"`
	SizeBytes   int64           `json:"size_bytes"`
	FirstUpload string          `json:"first_upload"`
	Exif        json.RawMessage `json:"exif,omitempty"`
	Caption     string          `json:"caption,omitempty"`
}

// Thumbnails carries the fetch paths for each rendered size.
type Thumbnails struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
}

// ImageList is the wire form of the ledger listing.
type ImageList struct {
	Images []Image `json:"images"`
	Count  int     `json:"count"`
}

func imageFromRecord(rec *store.UploadRecord) Image {
	img := Image{
		ImageID:      rec.UploadID,
		OriginalName: rec.OriginalName,
		ProcessedAt:  rec.ProcessedAt.UTC().Format(time.RFC3339Nano),
		Error:        rec.ErrorMessage,
	}
	if rec.Metadata != nil {
		meta := &Metadata{
			SHA256:      rec.Metadata.SHA256,
			Width:       rec.Metadata.Width,
			Height:      rec.Metadata.Height,
			Format:      rec.Metadata.Format,
			SizeBytes:   rec.Metadata.SizeBytes,
			FirstUpload: rec.Metadata.FirstUpload.UTC().Format(time.RFC3339Nano),
			Caption:     rec.Metadata.Caption,
		}
		if rec.Metadata.ExifJSON != "" && json.Valid([]byte(rec.Metadata.ExifJSON)) {
			meta.Exif = json.RawMessage(rec.Metadata.ExifJSON)
		}
		img.Metadata = meta
		img.Thumbnails = &Thumbnails{
			Small:  "/api/images/" + rec.UploadID + "/thumbnails/small",
			Medium: "/api/images/" + rec.UploadID + "/thumbnails/medium",
		}
	}
	return img
}
