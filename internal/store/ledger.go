package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RecordSuccess appends a successful attempt to the upload ledger together
// with its timing row. Both writes land in one transaction so a crash never
// leaves an attempt without timing data.
func (s *Store) RecordSuccess(ctx context.Context, uploadID, originalName, imagePath, sha256 string, startedAt time.Time) (*UploadRecord, error) {
	now := time.Now().UTC()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO uploads (upload_id, original_name, processed_at, image_path, metadata_sha256, error)
             VALUES (?, ?, ?, ?, ?, NULL)`,
			uploadID,
			originalName,
			formatTime(now),
			imagePath,
			sha256,
		); err != nil {
			return fmt.Errorf("insert upload: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO upload_timings (upload_id, started_at, finished_at, succeeded)
             VALUES (?, ?, ?, 1)`,
			uploadID,
			formatTime(startedAt),
			formatTime(now),
		); err != nil {
			return fmt.Errorf("insert upload timing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetUpload(ctx, uploadID)
}

// RecordFailure appends a failed attempt to the ledger with the rejection
// detail and its timing row.
func (s *Store) RecordFailure(ctx context.Context, uploadID, originalName, message string, startedAt time.Time) (*UploadRecord, error) {
	now := time.Now().UTC()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO uploads (upload_id, original_name, processed_at, image_path, metadata_sha256, error)
             VALUES (?, ?, ?, NULL, NULL, ?)`,
			uploadID,
			originalName,
			formatTime(now),
			message,
		); err != nil {
			return fmt.Errorf("insert upload: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO upload_timings (upload_id, started_at, finished_at, succeeded)
             VALUES (?, ?, ?, 0)`,
			uploadID,
			formatTime(startedAt),
			formatTime(now),
		); err != nil {
			return fmt.Errorf("insert upload timing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetUpload(ctx, uploadID)
}

// GetUpload fetches one ledger row, joined with its metadata when the
// attempt succeeded. Returns nil when no such upload exists.
func (s *Store) GetUpload(ctx context.Context, uploadID string) (*UploadRecord, error) {
	row := s.db.QueryRowContext(ctx, uploadSelect+` WHERE u.upload_id = ?`, uploadID)
	rec, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return rec, nil
}

// ListUploads returns ledger rows newest first, capped at limit when
// limit > 0. Ordering follows insertion order (rowid), not the textual
// processed_at column, which does not sort exactly when fractional-second
// precision varies between rows.
func (s *Store) ListUploads(ctx context.Context, limit int) ([]*UploadRecord, error) {
	query := uploadSelect + ` ORDER BY u.rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*UploadRecord
	for rows.Next() {
		rec, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		uploads = append(uploads, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return uploads, nil
}

// FindOriginalPath returns the stored original path for a content hash,
// taken from the earliest successful upload of that content. Empty when the
// hash is unknown.
func (s *Store) FindOriginalPath(ctx context.Context, sha256 string) (string, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT image_path FROM uploads
         WHERE metadata_sha256 = ? AND image_path IS NOT NULL
         ORDER BY rowid ASC LIMIT 1`,
		sha256,
	)
	var path sql.NullString
	if err := row.Scan(&path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find original path: %w", err)
	}
	return path.String, nil
}

const uploadSelect = `SELECT u.upload_id, u.original_name, u.processed_at, u.image_path, u.metadata_sha256, u.error,
        m.sha256, m.width, m.height, m.format, m.size_bytes, m.first_upload, m.exif_json, m.caption
    FROM uploads u
    LEFT JOIN metadata m ON m.sha256 = u.metadata_sha256`

func scanUpload(scanner interface{ Scan(dest ...any) error }) (*UploadRecord, error) {
	var (
		uploadID     string
		originalName string
		processedRaw string
		imagePath    sql.NullString
		metaHash     sql.NullString
		errMessage   sql.NullString

		mHash      sql.NullString
		mWidth     sql.NullInt64
		mHeight    sql.NullInt64
		mFormat    sql.NullString
		mSizeBytes sql.NullInt64
		mFirstRaw  sql.NullString
		mExifJSON  sql.NullString
		mCaption   sql.NullString
	)
	if err := scanner.Scan(
		&uploadID, &originalName, &processedRaw, &imagePath, &metaHash, &errMessage,
		&mHash, &mWidth, &mHeight, &mFormat, &mSizeBytes, &mFirstRaw, &mExifJSON, &mCaption,
	); err != nil {
		return nil, err
	}

	rec := &UploadRecord{
		UploadID:       uploadID,
		OriginalName:   originalName,
		ImagePath:      imagePath.String,
		MetadataSHA256: metaHash.String,
		ErrorMessage:   errMessage.String,
	}
	if processed, err := parseTimeString(processedRaw); err == nil {
		rec.ProcessedAt = processed
	}
	if mHash.Valid {
		meta := &MetadataRecord{
			SHA256:    mHash.String,
			Width:     int(mWidth.Int64),
			Height:    int(mHeight.Int64),
			Format:    mFormat.String,
			SizeBytes: mSizeBytes.Int64,
			ExifJSON:  mExifJSON.String,
			Caption:   mCaption.String,
		}
		if first, err := parseTimeString(mFirstRaw.String); err == nil {
			meta.FirstUpload = first
		}
		rec.Metadata = meta
	}
	return rec, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
