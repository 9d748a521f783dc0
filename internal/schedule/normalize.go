package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codr1/courtbook/internal/apperr"
)

const defaultGranularity = 60

// RawWindow is the loose window shape accepted at the API boundary. Older
// clients send Spanish field names, and some send a single "hora" instead of
// a start/end pair. Days lets one entry apply to several weekdays.
type RawWindow struct {
	DayOfWeek string   `json:"dayOfWeek,omitempty"`
	DiaSemana string   `json:"dia_semana,omitempty"`
	Days      []string `json:"days,omitempty"`

	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	HoraInicio string `json:"hora_inicio,omitempty"`
	HoraFin    string `json:"hora_fin,omitempty"`
	Hora       string `json:"hora,omitempty"`

	Granularity      *int `json:"granularity,omitempty"`
	IntervaloMinutos *int `json:"intervalo_minutos,omitempty"`

	Enabled    *bool `json:"enabled,omitempty"`
	Disponible *bool `json:"disponible,omitempty"`
}

// Normalize converts raw entries into validated windows for courtID.
// The first invalid entry aborts with a ValidationError naming its index.
func Normalize(courtID int64, raws []RawWindow) ([]Window, error) {
	windows := make([]Window, 0, len(raws))
	for idx, raw := range raws {
		expanded, err := raw.windows(courtID)
		if err != nil {
			return nil, prefixField(fmt.Sprintf("windows[%d]", idx), err)
		}
		windows = append(windows, expanded...)
	}
	return windows, nil
}

func (r RawWindow) windows(courtID int64) ([]Window, error) {
	dayNames := r.Days
	if len(dayNames) == 0 {
		day := firstNonEmpty(r.DayOfWeek, r.DiaSemana)
		if day == "" {
			return nil, apperr.Invalid("day_of_week", "is required")
		}
		dayNames = []string{day}
	}

	granularity := defaultGranularity
	switch {
	case r.Granularity != nil:
		granularity = *r.Granularity
	case r.IntervaloMinutos != nil:
		granularity = *r.IntervaloMinutos
	}

	enabled := true
	switch {
	case r.Enabled != nil:
		enabled = *r.Enabled
	case r.Disponible != nil:
		enabled = *r.Disponible
	}

	start, end, err := r.bounds(granularity)
	if err != nil {
		return nil, err
	}

	seen := make(map[time.Weekday]struct{}, len(dayNames))
	windows := make([]Window, 0, len(dayNames))
	for _, name := range dayNames {
		day, err := ParseWeekday(name)
		if err != nil {
			return nil, apperr.Invalid("day_of_week", err.Error())
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}

		w := Window{
			CourtID:     courtID,
			DayOfWeek:   day,
			Start:       start,
			End:         end,
			Granularity: granularity,
			Enabled:     enabled,
		}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func (r RawWindow) bounds(granularity int) (TimeOfDay, TimeOfDay, error) {
	startRaw := firstNonEmpty(r.Start, r.HoraInicio)
	endRaw := firstNonEmpty(r.End, r.HoraFin)

	if startRaw == "" && endRaw == "" && strings.TrimSpace(r.Hora) != "" {
		single, err := ParseTimeOfDay(r.Hora)
		if err != nil {
			return 0, 0, apperr.Invalid("hora", err.Error())
		}
		return single, single.Add(granularity), nil
	}

	if startRaw == "" {
		return 0, 0, apperr.Invalid("start", "is required")
	}
	if endRaw == "" {
		return 0, 0, apperr.Invalid("end", "is required")
	}
	start, err := ParseTimeOfDay(startRaw)
	if err != nil {
		return 0, 0, apperr.Invalid("start", err.Error())
	}
	end, err := ParseTimeOfDay(endRaw)
	if err != nil {
		return 0, 0, apperr.Invalid("end", err.Error())
	}
	return start, end, nil
}

func prefixField(prefix string, err error) error {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		return &apperr.ValidationError{Field: prefix + "." + verr.Field, Reason: verr.Reason}
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
