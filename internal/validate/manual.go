// Package validate checks manual entries and candidate intervals before they
// are written.
package validate

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultMinDuration = 5 * time.Minute
	DefaultMaxDuration = 24 * time.Hour
)

const displayLayout = "2006-01-02 15:04"

// Error is a client-fixable validation failure.
type Error struct {
	Field   string
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func invalid(field, code, format string, args ...any) *Error {
	return &Error{Field: field, Code: code, Message: fmt.Sprintf(format, args...)}
}

type Bounds struct {
	MinDuration time.Duration
	MaxDuration time.Duration
	// Location decides where "midnight yesterday" falls for the lookback
	// window. Nil means time.Local.
	Location *time.Location
}

func DefaultBounds() Bounds {
	return Bounds{
		MinDuration: DefaultMinDuration,
		MaxDuration: DefaultMaxDuration,
		Location:    time.Local,
	}
}

type ManualEntryValidator struct {
	bounds Bounds
}

func NewManualEntryValidator(bounds Bounds) *ManualEntryValidator {
	defaults := DefaultBounds()
	if bounds.MinDuration <= 0 {
		bounds.MinDuration = defaults.MinDuration
	}
	if bounds.MaxDuration < bounds.MinDuration {
		bounds.MaxDuration = defaults.MaxDuration
	}
	if bounds.Location == nil {
		bounds.Location = defaults.Location
	}
	return &ManualEntryValidator{bounds: bounds}
}

func (v *ManualEntryValidator) Bounds() Bounds {
	return v.bounds
}

// Validate parses the raw instants and applies the lookback window and time
// bound checks. Overlap is checked separately against the store.
func (v *ManualEntryValidator) Validate(rawStart, rawEnd string, now time.Time) (time.Time, time.Time, error) {
	start, err := ParseInstant("startTime", rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseInstant("endTime", rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := v.Lookback(start, now); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := v.TimeBounds(start, end, now); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// Lookback rejects start times before midnight of yesterday.
func (v *ManualEntryValidator) Lookback(start, now time.Time) error {
	earliest := EarliestBackfill(now, v.bounds.Location)
	if start.Before(earliest) {
		return invalid("startTime", "lookback_exceeded",
			"entries can only be added from %s onwards", earliest.Format(displayLayout))
	}
	return nil
}

func (v *ManualEntryValidator) TimeBounds(start, end, now time.Time) error {
	if start.After(now) {
		return invalid("startTime", "future_time", "start time cannot be in the future")
	}
	if end.After(now) {
		return invalid("endTime", "future_time", "end time cannot be in the future")
	}
	if !start.Before(end) {
		return invalid("endTime", "invalid_range", "end time must be after start time")
	}

	span := end.Sub(start)
	if span < v.bounds.MinDuration {
		return invalid("endTime", "duration_too_short",
			"entry must be at least %s long", v.bounds.MinDuration)
	}
	if span > v.bounds.MaxDuration {
		return invalid("endTime", "duration_too_long",
			"entry must be at most %s long", v.bounds.MaxDuration)
	}
	return nil
}

// EarliestBackfill returns midnight of the day before now in loc.
func EarliestBackfill(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, loc)
}

// ParseInstant parses an RFC 3339 timestamp supplied for field.
func ParseInstant(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, invalid(field, "missing_field", "%s is required", field)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, invalid(field, "invalid_date", "%s must be an RFC 3339 timestamp", field)
	}
	return t.UTC(), nil
}
