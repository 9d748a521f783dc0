package queries

import (
	"database/sql"
	"time"
)

type Court struct {
	ID          int64     `json:"id"`
	OwnerUserID int64     `json:"ownerUserId"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ScheduleWindow struct {
	ID                 int64
	CourtID            int64
	DayOfWeek          int64
	StartMinute        int64
	EndMinute          int64
	GranularityMinutes int64
	Enabled            bool
	CreatedAt          time.Time
}

type Reservation struct {
	ID              int64
	CourtID         int64
	UserID          int64
	ReservationDate string
	SlotMinute      int64
	StartsAt        int64
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ReservationTransition struct {
	ID            int64
	ReservationID int64
	FromStatus    string
	ToStatus      string
	ActorUserID   sql.NullInt64
	OccurredAt    time.Time
}
