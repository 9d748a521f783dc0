package queries

import "context"

const getCancellationCutoff = `
SELECT cutoff_minutes
FROM cancellation_policies
WHERE court_id = ?
`

func (q *Queries) GetCancellationCutoff(ctx context.Context, courtID int64) (int64, error) {
	var minutes int64
	err := q.db.QueryRowContext(ctx, getCancellationCutoff, courtID).Scan(&minutes)
	return minutes, err
}

const upsertCancellationCutoff = `
INSERT INTO cancellation_policies (court_id, cutoff_minutes, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (court_id) DO UPDATE SET
    cutoff_minutes = excluded.cutoff_minutes,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertCancellationCutoffParams struct {
	CourtID       int64
	CutoffMinutes int64
}

func (q *Queries) UpsertCancellationCutoff(ctx context.Context, arg UpsertCancellationCutoffParams) error {
	_, err := q.db.ExecContext(ctx, upsertCancellationCutoff, arg.CourtID, arg.CutoffMinutes)
	return err
}

const deleteCancellationCutoff = `
DELETE FROM cancellation_policies
WHERE court_id = ?
`

func (q *Queries) DeleteCancellationCutoff(ctx context.Context, courtID int64) error {
	_, err := q.db.ExecContext(ctx, deleteCancellationCutoff, courtID)
	return err
}
