package schedule

import (
	"slices"
	"time"
)

// GenerateSlots returns the slot start times a window offers on date, in
// ascending order. A slot is emitted only when a full granularity interval
// fits before the window end, so a trailing partial interval is dropped.
// Windows that are disabled, malformed, or for another weekday yield nothing.
func GenerateSlots(w Window, date time.Time) []TimeOfDay {
	if !w.Enabled || w.Granularity <= 0 || w.End <= w.Start {
		return nil
	}
	if date.Weekday() != w.DayOfWeek {
		return nil
	}

	slots := make([]TimeOfDay, 0, int(w.End-w.Start)/w.Granularity)
	for current := w.Start; current.Add(w.Granularity) <= w.End; current = current.Add(w.Granularity) {
		slots = append(slots, current)
	}
	return slots
}

// UnionSlots merges the slots of every window applying to date, deduplicated
// and sorted ascending.
func UnionSlots(windows []Window, date time.Time) []TimeOfDay {
	seen := make(map[TimeOfDay]struct{})
	for _, w := range windows {
		for _, slot := range GenerateSlots(w, date) {
			seen[slot] = struct{}{}
		}
	}

	slots := make([]TimeOfDay, 0, len(seen))
	for slot := range seen {
		slots = append(slots, slot)
	}
	slices.Sort(slots)
	return slots
}
