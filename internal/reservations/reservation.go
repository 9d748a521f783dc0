package reservations

import (
	"encoding/json"
	"fmt"
	"time"

	dbq "github.com/codr1/courtbook/internal/db/queries"
	"github.com/codr1/courtbook/internal/schedule"
)

// Reservation is one user's claim on a (court, date, slot) triple.
type Reservation struct {
	ID        int64
	CourtID   int64
	UserID    int64
	Date      time.Time
	Slot      schedule.TimeOfDay
	Status    Status
	StartsAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type reservationJSON struct {
	ID        int64              `json:"id"`
	CourtID   int64              `json:"courtId"`
	UserID    int64              `json:"userId"`
	Date      string             `json:"date"`
	Slot      schedule.TimeOfDay `json:"slot"`
	Status    Status             `json:"status"`
	StartsAt  time.Time          `json:"startsAt"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (r Reservation) MarshalJSON() ([]byte, error) {
	return json.Marshal(reservationJSON{
		ID:        r.ID,
		CourtID:   r.CourtID,
		UserID:    r.UserID,
		Date:      schedule.FormatDate(r.Date),
		Slot:      r.Slot,
		Status:    r.Status,
		StartsAt:  r.StartsAt,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	})
}

// Transition is one audited status change.
type Transition struct {
	From        Status    `json:"from,omitempty"`
	To          Status    `json:"to"`
	ActorUserID int64     `json:"actorUserId,omitempty"`
	At          time.Time `json:"at"`
}

func fromRow(row dbq.Reservation) (Reservation, error) {
	date, err := schedule.ParseDate(row.ReservationDate)
	if err != nil {
		return Reservation{}, fmt.Errorf("reservation %d: %w", row.ID, err)
	}
	return Reservation{
		ID:        row.ID,
		CourtID:   row.CourtID,
		UserID:    row.UserID,
		Date:      date,
		Slot:      schedule.TimeOfDay(row.SlotMinute),
		Status:    Status(row.Status),
		StartsAt:  time.Unix(row.StartsAt, 0).UTC(),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func fromRows(rows []dbq.Reservation) ([]Reservation, error) {
	items := make([]Reservation, 0, len(rows))
	for _, row := range rows {
		r, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, nil
}
