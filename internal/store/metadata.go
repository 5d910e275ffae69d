package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertMetadata inserts the metadata row for rec.SHA256 if absent and
// returns the stored row. isNew is true for exactly one caller per hash,
// including under concurrent uploads of identical content: the conditional
// insert is resolved atomically by the unique primary key, and losers
// re-read the winner's row. Intrinsic fields of an existing row are never
// modified.
func (s *Store) UpsertMetadata(ctx context.Context, rec MetadataRecord) (*MetadataRecord, bool, error) {
	if rec.SHA256 == "" {
		return nil, false, errors.New("metadata sha256 is required")
	}
	firstUpload := rec.FirstUpload
	if firstUpload.IsZero() {
		firstUpload = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO metadata (sha256, width, height, format, size_bytes, first_upload)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(sha256) DO NOTHING`,
		rec.SHA256,
		rec.Width,
		rec.Height,
		rec.Format,
		rec.SizeBytes,
		formatTime(firstUpload),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert metadata: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	stored, err := s.GetMetadata(ctx, rec.SHA256)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("metadata row missing after upsert: %s", rec.SHA256)
	}
	return stored, inserted == 1, nil
}

// GetMetadata fetches a metadata row by content hash. Returns nil when absent.
func (s *Store) GetMetadata(ctx context.Context, sha256 string) (*MetadataRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT sha256, width, height, format, size_bytes, first_upload, exif_json, caption
         FROM metadata WHERE sha256 = ?`,
		sha256,
	)
	rec, err := scanMetadata(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get metadata: %w", err)
	}
	return rec, nil
}

// SetEnrichment writes a single enrichment field for a content hash. Writes
// are idempotent and independent per field; re-running a job overwrites its
// own field and nothing else.
func (s *Store) SetEnrichment(ctx context.Context, sha256 string, field EnrichmentField, value string) error {
	var column string
	switch field {
	case FieldExifJSON:
		column = "exif_json"
	case FieldCaption:
		column = "caption"
	default:
		return fmt.Errorf("unknown enrichment field %q", field)
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE metadata SET `+column+` = ? WHERE sha256 = ?`,
		value,
		sha256,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no metadata row for hash %s", sha256)
	}
	return nil
}

func scanMetadata(scanner interface{ Scan(dest ...any) error }) (*MetadataRecord, error) {
	var (
		hash        string
		width       int
		height      int
		format      string
		sizeBytes   int64
		firstRaw    string
		exifJSON    sql.NullString
		captionText sql.NullString
	)
	if err := scanner.Scan(&hash, &width, &height, &format, &sizeBytes, &firstRaw, &exifJSON, &captionText); err != nil {
		return nil, err
	}

	rec := &MetadataRecord{
		SHA256:    hash,
		Width:     width,
		Height:    height,
		Format:    format,
		SizeBytes: sizeBytes,
		ExifJSON:  exifJSON.String,
		Caption:   captionText.String,
	}
	if first, err := parseTimeString(firstRaw); err == nil {
		rec.FirstUpload = first
	}
	return rec, nil
}
