package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/codr1/courtbook/internal/apperr"
)

// MinGranularity is the smallest slot length a window may declare, in minutes.
const MinGranularity = 30

// Window is a recurring weekly operating range for one court.
type Window struct {
	ID          int64        `json:"id,omitempty"`
	CourtID     int64        `json:"courtId"`
	DayOfWeek   time.Weekday `json:"dayOfWeek"`
	Start       TimeOfDay    `json:"start"`
	End         TimeOfDay    `json:"end"`
	Granularity int          `json:"granularity"`
	Enabled     bool         `json:"enabled"`
}

// Validate checks the window bounds and granularity.
func (w Window) Validate() error {
	if w.DayOfWeek < time.Sunday || w.DayOfWeek > time.Saturday {
		return apperr.Invalidf("day_of_week", "must be between 0 and 6, got %d", int(w.DayOfWeek))
	}
	if !w.Start.Valid() {
		return apperr.Invalid("start", "must be within the day")
	}
	if w.End <= 0 || w.End > EndOfDay {
		return apperr.Invalid("end", "must be within the day")
	}
	if w.End <= w.Start {
		return apperr.Invalidf("end", "must be after start (%s-%s)", w.Start, w.End)
	}
	if w.Granularity < MinGranularity {
		return apperr.Invalidf("granularity", "must be at least %d minutes", MinGranularity)
	}
	return nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
	"domingo":   time.Sunday,
	"monday":    time.Monday,
	"mon":       time.Monday,
	"lunes":     time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"martes":    time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"miercoles": time.Wednesday,
	"miércoles": time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"jueves":    time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"viernes":   time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
	"sabado":    time.Saturday,
	"sábado":    time.Saturday,
}

// ParseWeekday accepts English or Spanish day names (full or abbreviated)
// and the numbers 0-6 with Sunday as 0.
func ParseWeekday(raw string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if day, ok := weekdayNames[key]; ok {
		return day, nil
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("unknown day of week %q", raw)
}
