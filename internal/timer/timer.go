// Package timer holds the legal state transitions of a session. Every
// function takes the session by value and returns the updated copy; nothing
// here touches storage.
package timer

import (
	"errors"
	"fmt"
	"time"

	"timelog/internal/duration"
	"timelog/internal/model"
)

var (
	ErrNotTimer          = errors.New("session is not a timer entry")
	ErrAlreadyCompleted  = errors.New("timer already stopped")
	ErrAlreadyPaused     = errors.New("timer already paused")
	ErrNotPaused         = errors.New("timer is not paused")
	ErrAlreadyResumed    = errors.New("timer already resumed")
	ErrNoPauseToResume   = errors.New("no pause to resume")
	ErrPaused            = errors.New("timer is paused")
	ErrStartInFuture     = errors.New("start time cannot be in the future")
	ErrEndInFuture       = errors.New("end time cannot be in the future")
	ErrEndBeforeStart    = errors.New("end time must be after start time")
	ErrEndBeforeBoundary = errors.New("end time must not precede the last pause or resume")
)

// Start builds a new active timer session. A zero startTime means now.
func Start(id, activityID string, startTime, now time.Time) (model.Session, error) {
	if startTime.IsZero() {
		startTime = now
	}
	if startTime.After(now) {
		return model.Session{}, ErrStartInFuture
	}
	return model.Session{
		ID:            id,
		ActivityID:    activityID,
		EntryType:     model.EntryTypeTimer,
		Status:        model.StatusActive,
		StartTime:     startTime,
		LastHeartbeat: startTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func Pause(s model.Session, now time.Time) (model.Session, error) {
	if err := requireTimer(s); err != nil {
		return s, err
	}
	switch s.Status {
	case model.StatusActive:
	case model.StatusPaused:
		return s, ErrAlreadyPaused
	case model.StatusCompleted:
		return s, ErrAlreadyCompleted
	default:
		return s, unknownStatus(s.Status)
	}

	history, err := s.PauseHistory.Open(now)
	if err != nil {
		return s, fmt.Errorf("open pause: %w", err)
	}
	s.Status = model.StatusPaused
	s.PauseHistory = history
	s.LastHeartbeat = now
	s.UpdatedAt = now
	return s, nil
}

func Resume(s model.Session, now time.Time) (model.Session, error) {
	if err := requireTimer(s); err != nil {
		return s, err
	}
	if s.Status == model.StatusCompleted {
		return s, ErrAlreadyCompleted
	}
	last, ok := s.PauseHistory.Last()
	if !ok {
		return s, ErrNoPauseToResume
	}
	if last.Closed() {
		return s, ErrAlreadyResumed
	}
	switch s.Status {
	case model.StatusPaused:
	case model.StatusActive:
		return s, ErrNotPaused
	default:
		return s, unknownStatus(s.Status)
	}

	history, err := s.PauseHistory.Close(now)
	if err != nil {
		return s, fmt.Errorf("close pause: %w", err)
	}
	s.Status = model.StatusActive
	s.PauseHistory = history
	s.LastHeartbeat = now
	s.UpdatedAt = now
	return s, nil
}

// Heartbeat records a liveness signal. It has no effect beyond
// LastHeartbeat, so repeating it is harmless.
func Heartbeat(s model.Session, now time.Time) (model.Session, error) {
	if err := requireTimer(s); err != nil {
		return s, err
	}
	switch s.Status {
	case model.StatusActive:
	case model.StatusPaused:
		return s, ErrPaused
	case model.StatusCompleted:
		return s, ErrAlreadyCompleted
	default:
		return s, unknownStatus(s.Status)
	}

	s.LastHeartbeat = now
	s.UpdatedAt = now
	return s, nil
}

// Stop completes an active or paused timer at end. A zero end means now.
// A pause still open at end is closed there so that paused time is never
// credited.
func Stop(s model.Session, end, now time.Time) (model.Session, error) {
	if err := requireTimer(s); err != nil {
		return s, err
	}
	switch s.Status {
	case model.StatusActive, model.StatusPaused:
	case model.StatusCompleted:
		return s, ErrAlreadyCompleted
	default:
		return s, unknownStatus(s.Status)
	}

	if end.IsZero() {
		end = now
	}
	if end.After(now) {
		return s, ErrEndInFuture
	}
	if !end.After(s.StartTime) {
		return s, ErrEndBeforeStart
	}
	if end.Before(s.PauseHistory.LastBoundary()) {
		return s, ErrEndBeforeBoundary
	}

	history := s.PauseHistory
	if last, ok := history.Last(); ok && !last.Closed() && end.After(last.PauseTime) {
		closed, err := history.Close(end)
		if err != nil {
			return s, fmt.Errorf("close pause: %w", err)
		}
		history = closed
	}

	seconds := duration.NetSeconds(s.StartTime, end, history)
	endTime := end
	s.Status = model.StatusCompleted
	s.PauseHistory = history
	s.EndTime = &endTime
	s.LastHeartbeat = end
	s.Duration = &seconds
	s.UpdatedAt = now
	return s, nil
}

// CanDiscard reports whether the session may be deleted without a trace.
func CanDiscard(s model.Session) error {
	if err := requireTimer(s); err != nil {
		return err
	}
	switch s.Status {
	case model.StatusActive, model.StatusPaused:
		return nil
	case model.StatusCompleted:
		return ErrAlreadyCompleted
	default:
		return unknownStatus(s.Status)
	}
}

// Manual builds a completed manual entry. Bounds are checked by the caller.
func Manual(id, activityID string, start, end, now time.Time) model.Session {
	seconds := duration.NetSeconds(start, end, model.PauseHistory{})
	endTime := end
	return model.Session{
		ID:            id,
		ActivityID:    activityID,
		EntryType:     model.EntryTypeManual,
		Status:        model.StatusCompleted,
		StartTime:     start,
		EndTime:       &endTime,
		LastHeartbeat: end,
		Duration:      &seconds,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func requireTimer(s model.Session) error {
	if s.EntryType != model.EntryTypeTimer {
		return ErrNotTimer
	}
	return nil
}

func unknownStatus(status model.Status) error {
	return fmt.Errorf("unknown session status %q", status)
}
