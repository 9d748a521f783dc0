package queries

import "context"

const scheduleWindowColumns = `id, court_id, day_of_week, start_minute, end_minute, granularity_minutes, enabled, created_at`

const createScheduleWindow = `
INSERT INTO schedule_windows (court_id, day_of_week, start_minute, end_minute, granularity_minutes, enabled)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + scheduleWindowColumns

type CreateScheduleWindowParams struct {
	CourtID            int64
	DayOfWeek          int64
	StartMinute        int64
	EndMinute          int64
	GranularityMinutes int64
	Enabled            bool
}

func (q *Queries) CreateScheduleWindow(ctx context.Context, arg CreateScheduleWindowParams) (ScheduleWindow, error) {
	row := q.db.QueryRowContext(ctx, createScheduleWindow,
		arg.CourtID,
		arg.DayOfWeek,
		arg.StartMinute,
		arg.EndMinute,
		arg.GranularityMinutes,
		arg.Enabled,
	)
	var i ScheduleWindow
	err := row.Scan(
		&i.ID,
		&i.CourtID,
		&i.DayOfWeek,
		&i.StartMinute,
		&i.EndMinute,
		&i.GranularityMinutes,
		&i.Enabled,
		&i.CreatedAt,
	)
	return i, err
}

const deleteScheduleWindows = `
DELETE FROM schedule_windows
WHERE court_id = ?
`

func (q *Queries) DeleteScheduleWindows(ctx context.Context, courtID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteScheduleWindows, courtID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listScheduleWindows = `
SELECT ` + scheduleWindowColumns + `
FROM schedule_windows
WHERE court_id = ?
ORDER BY day_of_week, start_minute, id
`

func (q *Queries) ListScheduleWindows(ctx context.Context, courtID int64) ([]ScheduleWindow, error) {
	return q.scanScheduleWindows(ctx, listScheduleWindows, courtID)
}

const listScheduleWindowsByDay = `
SELECT ` + scheduleWindowColumns + `
FROM schedule_windows
WHERE court_id = ? AND day_of_week = ?
`

type ListScheduleWindowsByDayParams struct {
	CourtID   int64
	DayOfWeek int64
}

func (q *Queries) ListScheduleWindowsByDay(ctx context.Context, arg ListScheduleWindowsByDayParams) ([]ScheduleWindow, error) {
	return q.scanScheduleWindows(ctx, listScheduleWindowsByDay, arg.CourtID, arg.DayOfWeek)
}

func (q *Queries) scanScheduleWindows(ctx context.Context, query string, args ...interface{}) ([]ScheduleWindow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ScheduleWindow
	for rows.Next() {
		var i ScheduleWindow
		if err := rows.Scan(
			&i.ID,
			&i.CourtID,
			&i.DayOfWeek,
			&i.StartMinute,
			&i.EndMinute,
			&i.GranularityMinutes,
			&i.Enabled,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
