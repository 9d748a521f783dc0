package schedule

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/codr1/courtbook/internal/apperr"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]TimeOfDay{
		"08:00":    Clock(8, 0),
		"8:30 pm":  Clock(20, 30),
		"23:15:00": Clock(23, 15),
		"24:00":    EndOfDay,
	}
	for raw, want := range cases {
		got, err := ParseTimeOfDay(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %s want %s", raw, got, want)
		}
	}

	if _, err := ParseTimeOfDay("8h"); err == nil {
		t.Fatalf("expected error for malformed time")
	}
}

func TestParseWeekday(t *testing.T) {
	cases := map[string]time.Weekday{
		"Monday":    time.Monday,
		"lunes":     time.Monday,
		"miércoles": time.Wednesday,
		"sabado":    time.Saturday,
		"0":         time.Sunday,
		" FRI ":     time.Friday,
	}
	for raw, want := range cases {
		got, err := ParseWeekday(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %s want %s", raw, got, want)
		}
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Fatalf("expected error for unknown weekday")
	}
}

func TestNormalize_SpanishRangeShape(t *testing.T) {
	var raws []RawWindow
	body := `[{"dia_semana":"lunes","hora_inicio":"08:00","hora_fin":"10:00","intervalo_minutos":60,"disponible":true}]`
	if err := json.Unmarshal([]byte(body), &raws); err != nil {
		t.Fatalf("decode: %v", err)
	}

	windows, err := Normalize(7, raws)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("windows: %d", len(windows))
	}
	w := windows[0]
	if w.CourtID != 7 || w.DayOfWeek != time.Monday || w.Start != Clock(8, 0) || w.End != Clock(10, 0) || w.Granularity != 60 || !w.Enabled {
		t.Fatalf("unexpected window: %+v", w)
	}
}

func TestNormalize_SingleHoraShape(t *testing.T) {
	granularity := 90
	windows, err := Normalize(1, []RawWindow{{DayOfWeek: "tuesday", Hora: "18:00", Granularity: &granularity}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if windows[0].Start != Clock(18, 0) || windows[0].End != Clock(19, 30) {
		t.Fatalf("unexpected bounds: %s-%s", windows[0].Start, windows[0].End)
	}
	if got := GenerateSlots(windows[0], monday.AddDate(0, 0, 1)); len(got) != 1 || got[0] != Clock(18, 0) {
		t.Fatalf("single slot window: %v", got)
	}
}

func TestNormalize_MultipleDays(t *testing.T) {
	windows, err := Normalize(1, []RawWindow{{
		Days:  []string{"saturday", "domingo", "sat"},
		Start: "09:00",
		End:   "13:00",
	}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("expected duplicate day collapsed, got %d windows", len(windows))
	}
	if windows[0].Granularity != 60 {
		t.Fatalf("default granularity: %d", windows[0].Granularity)
	}
}

func TestNormalize_RejectsInvalid(t *testing.T) {
	small := 15
	cases := []struct {
		name  string
		raw   RawWindow
		field string
	}{
		{"end before start", RawWindow{DayOfWeek: "monday", Start: "10:00", End: "09:00"}, "windows[0].end"},
		{"end equals start", RawWindow{DayOfWeek: "monday", Start: "10:00", End: "10:00"}, "windows[0].end"},
		{"granularity too small", RawWindow{DayOfWeek: "monday", Start: "08:00", End: "10:00", Granularity: &small}, "windows[0].granularity"},
		{"missing day", RawWindow{Start: "08:00", End: "10:00"}, "windows[0].day_of_week"},
		{"missing end", RawWindow{DayOfWeek: "monday", Start: "08:00"}, "windows[0].end"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(1, []RawWindow{tc.raw})
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) || verr.Field != tc.field {
				t.Fatalf("field: got %v want %s", err, tc.field)
			}
		})
	}
}
