package apiutil

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codr1/courtbook/internal/apperr"
	"github.com/codr1/courtbook/internal/schedule"
)

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperr.Invalid(field, "is required")
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, apperr.Invalid(field, "must be greater than 0")
	}
	return value, nil
}

// PathInt64 reads a positive integer path value registered on the mux.
func PathInt64(r *http.Request, name string) (int64, error) {
	return ParsePositiveInt64Field(r.PathValue(name), name)
}

// DateFromQuery parses a YYYY-MM-DD query value. Optional values that are
// absent return the zero time.
func DateFromQuery(r *http.Request, key string, required bool) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		if required {
			return time.Time{}, apperr.Invalid(key, "is required")
		}
		return time.Time{}, nil
	}
	date, err := schedule.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperr.Invalid(key, err.Error())
	}
	return date, nil
}
