package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EnqueueJob adds a pending enrichment job for (kind, sha256). Enqueuing is
// idempotent: the unique (kind, sha256) constraint swallows duplicates, so
// re-dispatching after a crash never double-queues work.
func (s *Store) EnqueueJob(ctx context.Context, kind, sha256 string) error {
	now := formatTime(time.Now().UTC())
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (kind, sha256, status, attempts, created_at, updated_at)
         VALUES (?, ?, 'pending', 0, ?, ?)
         ON CONFLICT(kind, sha256) DO NOTHING`,
		kind,
		sha256,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("enqueue %s job: %w", kind, err)
	}
	return nil
}

// ClaimNextJob atomically moves the oldest pending job to running and
// returns it. The claim is a single UPDATE so concurrent workers never pick
// up the same job. Returns nil when the queue is empty.
func (s *Store) ClaimNextJob(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`UPDATE jobs SET status = 'running', attempts = attempts + 1, updated_at = ?
         WHERE id = (SELECT id FROM jobs WHERE status = 'pending' ORDER BY id LIMIT 1)
         RETURNING id, kind, sha256, status, attempts, error, created_at, updated_at`,
		formatTime(time.Now().UTC()),
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// CompleteJob marks a running job as done.
func (s *Store) CompleteJob(ctx context.Context, jobID int64) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = 'done', error = NULL, updated_at = ? WHERE id = ?`,
		formatTime(time.Now().UTC()),
		jobID,
	)
	if err != nil {
		return fmt.Errorf("complete job %d: %w", jobID, err)
	}
	return nil
}

// FailJob records a job failure. When retry is true the job returns to
// pending for another attempt; otherwise it is parked as failed with the
// message for inspection.
func (s *Store) FailJob(ctx context.Context, jobID int64, message string, retry bool) error {
	status := string(JobFailed)
	if retry {
		status = string(JobPending)
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		status,
		nullableString(message),
		formatTime(time.Now().UTC()),
		jobID,
	)
	if err != nil {
		return fmt.Errorf("fail job %d: %w", jobID, err)
	}
	return nil
}

// ResetStuckJobs returns running jobs to pending. Called once at daemon
// startup to recover work orphaned by a crash mid-claim.
func (s *Store) ResetStuckJobs(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = 'pending', updated_at = ? WHERE status = 'running'`,
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// ListJobs returns jobs for a content hash, oldest first.
func (s *Store) ListJobs(ctx context.Context, sha256 string) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, kind, sha256, status, attempts, error, created_at, updated_at
         FROM jobs WHERE sha256 = ? ORDER BY id`,
		sha256,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job        Job
		status     string
		errMessage sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&job.ID, &job.Kind, &job.SHA256, &status, &job.Attempts, &errMessage, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	job.Status = JobStatus(status)
	job.Error = errMessage.String
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return &job, nil
}
