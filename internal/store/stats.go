package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Stats computes the aggregate view over the upload ledger. The success
// rate is formatted with two decimals and reads "0.00%" when no uploads
// have been recorded. Average duration covers completed attempts only,
// successes and failures alike.
func (s *Store) Stats(ctx context.Context) (StatsSnapshot, error) {
	snapshot := StatsSnapshot{SuccessRate: "0.00%"}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1), COALESCE(SUM(CASE WHEN error IS NOT NULL THEN 1 ELSE 0 END), 0) FROM uploads`,
	)
	if err := row.Scan(&snapshot.Total, &snapshot.Failed); err != nil {
		return snapshot, fmt.Errorf("scan upload counts: %w", err)
	}

	if snapshot.Total > 0 {
		rate := float64(snapshot.Total-snapshot.Failed) / float64(snapshot.Total) * 100
		snapshot.SuccessRate = fmt.Sprintf("%.2f%%", rate)
	}

	avg, err := s.averageDuration(ctx)
	if err != nil {
		return snapshot, err
	}
	snapshot.AvgDurationSeconds = avg
	return snapshot, nil
}

func (s *Store) averageDuration(ctx context.Context) (float64, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT started_at, finished_at FROM upload_timings WHERE finished_at IS NOT NULL`,
	)
	if err != nil {
		return 0, fmt.Errorf("query upload timings: %w", err)
	}
	defer rows.Close()

	var (
		total float64
		count int
	)
	for rows.Next() {
		var startedRaw string
		var finishedRaw sql.NullString
		if err := rows.Scan(&startedRaw, &finishedRaw); err != nil {
			return 0, fmt.Errorf("scan upload timing: %w", err)
		}
		started, err := parseTimeString(startedRaw)
		if err != nil {
			continue
		}
		finished, err := parseTimeString(finishedRaw.String)
		if err != nil {
			continue
		}
		total += finished.Sub(started).Seconds()
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate upload timings: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	return total / float64(count), nil
}
