package validate

import (
	"fmt"
	"time"

	"timelog/internal/model"
)

// ConflictError names the existing session a candidate interval collides
// with.
type ConflictError struct {
	Existing model.Session
	Location *time.Location
}

func (e *ConflictError) Error() string {
	loc := e.Location
	if loc == nil {
		loc = time.Local
	}
	name := e.Existing.ActivityName
	if name == "" {
		name = e.Existing.ActivityID
	}
	start := e.Existing.StartTime.In(loc).Format(displayLayout)
	if e.Existing.EndTime == nil {
		return fmt.Sprintf("overlaps %q: running timer, started at %s", name, start)
	}
	return fmt.Sprintf("overlaps %q from %s to %s", name, start, e.Existing.EndTime.In(loc).Format(displayLayout))
}

// Conflicts reports whether existing collides with the half-open interval
// [start, end). Completed sessions use interval intersection; an open session
// conflicts whenever it began before end, since it has no end yet.
func Conflicts(existing model.Session, start, end time.Time) bool {
	switch existing.Status {
	case model.StatusCompleted:
		if existing.EndTime == nil {
			return false
		}
		return existing.StartTime.Before(end) && existing.EndTime.After(start)
	case model.StatusActive, model.StatusPaused:
		return existing.StartTime.Before(end)
	default:
		return false
	}
}

// Overlap returns a *ConflictError for the first candidate that collides with
// [start, end), or nil.
func Overlap(start, end time.Time, candidates []model.Session, loc *time.Location) error {
	for _, existing := range candidates {
		if Conflicts(existing, start, end) {
			return &ConflictError{Existing: existing, Location: loc}
		}
	}
	return nil
}
