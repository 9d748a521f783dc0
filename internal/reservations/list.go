package reservations

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	dbq "github.com/codr1/courtbook/internal/db/queries"
	"github.com/codr1/courtbook/internal/schedule"
)

const (
	dialectSQLite = "sqlite3"
	tableName     = "reservations"

	colCourtID = "court_id"
	colUserID  = "user_id"
	colDate    = "reservation_date"
	colSlot    = "slot_minute"
	colStatus  = "status"
	colID      = "id"

	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Filter narrows List. Zero values leave a dimension unconstrained; From and
// To are inclusive calendar dates.
type Filter struct {
	UserID   int64
	CourtID  int64
	From     time.Time
	To       time.Time
	Statuses []Status
	Limit    int
	Offset   int
}

// List returns reservations matching filter ordered by date, slot and id.
func (l *Ledger) List(ctx context.Context, filter Filter) ([]Reservation, error) {
	query, args, err := buildListQuery(filter)
	if err != nil {
		return nil, err
	}
	rows, err := l.db.Queries.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	items, err := dbq.ScanReservations(rows)
	if err != nil {
		return nil, fmt.Errorf("scan reservations: %w", err)
	}
	return fromRows(items)
}

func buildListQuery(filter Filter) (string, []interface{}, error) {
	where := make([]goqu.Expression, 0, 5)
	if filter.UserID > 0 {
		where = append(where, goqu.C(colUserID).Eq(filter.UserID))
	}
	if filter.CourtID > 0 {
		where = append(where, goqu.C(colCourtID).Eq(filter.CourtID))
	}
	if !filter.From.IsZero() {
		where = append(where, goqu.C(colDate).Gte(schedule.FormatDate(filter.From)))
	}
	if !filter.To.IsZero() {
		where = append(where, goqu.C(colDate).Lte(schedule.FormatDate(filter.To)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		where = append(where, goqu.C(colStatus).In(statuses))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	stmt := goqu.Dialect(dialectSQLite).
		From(tableName).
		Prepared(true).
		Select(goqu.L(dbq.ReservationColumns)).
		Where(where...).
		Order(goqu.I(colDate).Asc(), goqu.I(colSlot).Asc(), goqu.I(colID).Asc()).
		Limit(uint(limit)).
		Offset(uint(offset))

	query, args, err := stmt.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build reservation list query: %w", err)
	}
	return query, args, nil
}
