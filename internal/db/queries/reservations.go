package queries

import (
	"context"
	"database/sql"
	"time"
)

// ReservationColumns lists the reservations columns in scan order.
const ReservationColumns = `id, court_id, user_id, reservation_date, slot_minute, starts_at, status, created_at, updated_at`

const createReservation = `
INSERT INTO reservations (court_id, user_id, reservation_date, slot_minute, starts_at, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + ReservationColumns

type CreateReservationParams struct {
	CourtID         int64
	UserID          int64
	ReservationDate string
	SlotMinute      int64
	StartsAt        int64
	Status          string
	CreatedAt       time.Time
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, createReservation,
		arg.CourtID,
		arg.UserID,
		arg.ReservationDate,
		arg.SlotMinute,
		arg.StartsAt,
		arg.Status,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return ScanReservation(row)
}

const getReservation = `
SELECT ` + ReservationColumns + `
FROM reservations
WHERE id = ?
`

func (q *Queries) GetReservation(ctx context.Context, id int64) (Reservation, error) {
	return ScanReservation(q.db.QueryRowContext(ctx, getReservation, id))
}

const updateReservationStatus = `
UPDATE reservations
SET status = ?, updated_at = ?
WHERE id = ? AND status = ?
RETURNING ` + ReservationColumns

type UpdateReservationStatusParams struct {
	ID         int64
	FromStatus string
	ToStatus   string
	UpdatedAt  time.Time
}

// UpdateReservationStatus moves a reservation from FromStatus to ToStatus.
// It returns sql.ErrNoRows when the row is missing or no longer in FromStatus.
func (q *Queries) UpdateReservationStatus(ctx context.Context, arg UpdateReservationStatusParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, updateReservationStatus, arg.ToStatus, arg.UpdatedAt, arg.ID, arg.FromStatus)
	return ScanReservation(row)
}

const listActiveSlotMinutes = `
SELECT slot_minute
FROM reservations
WHERE court_id = ? AND reservation_date = ? AND status IN ('pending', 'confirmed')
ORDER BY slot_minute
`

type ListActiveSlotMinutesParams struct {
	CourtID         int64
	ReservationDate string
}

func (q *Queries) ListActiveSlotMinutes(ctx context.Context, arg ListActiveSlotMinutesParams) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listActiveSlotMinutes, arg.CourtID, arg.ReservationDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var minute int64
		if err := rows.Scan(&minute); err != nil {
			return nil, err
		}
		items = append(items, minute)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listReservationsDueForCompletion = `
SELECT ` + ReservationColumns + `
FROM reservations
WHERE status = 'confirmed' AND starts_at <= ?
ORDER BY starts_at, id
LIMIT ?
`

type ListReservationsDueForCompletionParams struct {
	StartsBefore int64
	Limit        int64
}

func (q *Queries) ListReservationsDueForCompletion(ctx context.Context, arg ListReservationsDueForCompletionParams) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, listReservationsDueForCompletion, arg.StartsBefore, arg.Limit)
	if err != nil {
		return nil, err
	}
	return ScanReservations(rows)
}

const countActiveReservationsForUserOnDate = `
SELECT COUNT(*)
FROM reservations
WHERE user_id = ? AND reservation_date = ? AND status IN ('pending', 'confirmed')
`

type CountActiveReservationsForUserOnDateParams struct {
	UserID          int64
	ReservationDate string
}

func (q *Queries) CountActiveReservationsForUserOnDate(ctx context.Context, arg CountActiveReservationsForUserOnDateParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countActiveReservationsForUserOnDate, arg.UserID, arg.ReservationDate).Scan(&count)
	return count, err
}

const createReservationTransition = `
INSERT INTO reservation_transitions (reservation_id, from_status, to_status, actor_user_id, occurred_at)
VALUES (?, ?, ?, ?, ?)
`

type CreateReservationTransitionParams struct {
	ReservationID int64
	FromStatus    string
	ToStatus      string
	ActorUserID   sql.NullInt64
	OccurredAt    time.Time
}

func (q *Queries) CreateReservationTransition(ctx context.Context, arg CreateReservationTransitionParams) error {
	_, err := q.db.ExecContext(ctx, createReservationTransition,
		arg.ReservationID,
		arg.FromStatus,
		arg.ToStatus,
		arg.ActorUserID,
		arg.OccurredAt,
	)
	return err
}

const listReservationTransitions = `
SELECT id, reservation_id, from_status, to_status, actor_user_id, occurred_at
FROM reservation_transitions
WHERE reservation_id = ?
ORDER BY id
`

func (q *Queries) ListReservationTransitions(ctx context.Context, reservationID int64) ([]ReservationTransition, error) {
	rows, err := q.db.QueryContext(ctx, listReservationTransitions, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReservationTransition
	for rows.Next() {
		var i ReservationTransition
		if err := rows.Scan(
			&i.ID,
			&i.ReservationID,
			&i.FromStatus,
			&i.ToStatus,
			&i.ActorUserID,
			&i.OccurredAt,
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ScanReservation scans one row selected with ReservationColumns.
func ScanReservation(row rowScanner) (Reservation, error) {
	var i Reservation
	err := row.Scan(
		&i.ID,
		&i.CourtID,
		&i.UserID,
		&i.ReservationDate,
		&i.SlotMinute,
		&i.StartsAt,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

// ScanReservations drains rows selected with ReservationColumns and closes them.
func ScanReservations(rows *sql.Rows) ([]Reservation, error) {
	defer rows.Close()
	var items []Reservation
	for rows.Next() {
		i, err := ScanReservation(rows)
		if err != nil {
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
