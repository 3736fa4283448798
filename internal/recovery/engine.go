// Package recovery decides what to do with a running timer whose client went
// quiet. It only ever uses now or the last heartbeat as an end boundary, so a
// session is never credited time the client did not attest to.
package recovery

import (
	"fmt"
	"time"

	"timelog/internal/duration"
	"timelog/internal/model"
	"timelog/internal/timer"
)

const (
	DefaultConfirmAfter = 5 * time.Minute
	DefaultAbandonAfter = 24 * time.Hour
	DefaultMinDuration  = 5 * time.Minute
)

type Outcome string

const (
	// OutcomeSkipped means the session was not active; nothing was evaluated.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeRefreshed means the gap was within normal heartbeat cadence.
	OutcomeRefreshed Outcome = "refreshed"
	// OutcomeHealed means the silent gap was recorded as a closed pause.
	OutcomeHealed Outcome = "healed"
	// OutcomeCompleted means the session was abandoned and completed at its
	// last heartbeat.
	OutcomeCompleted Outcome = "completed"
	// OutcomeDiscardable means the session was abandoned with too little
	// tracked time to keep. It is returned untouched.
	OutcomeDiscardable Outcome = "discardable"
)

type Thresholds struct {
	ConfirmAfter time.Duration
	AbandonAfter time.Duration
	MinDuration  time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ConfirmAfter: DefaultConfirmAfter,
		AbandonAfter: DefaultAbandonAfter,
		MinDuration:  DefaultMinDuration,
	}
}

type Result struct {
	Session model.Session
	Outcome Outcome
	Gap     time.Duration
}

// Changed reports whether the session needs to be written back.
func (r Result) Changed() bool {
	switch r.Outcome {
	case OutcomeRefreshed, OutcomeHealed, OutcomeCompleted:
		return true
	default:
		return false
	}
}

type Engine struct {
	thresholds Thresholds
}

func NewEngine(thresholds Thresholds) *Engine {
	defaults := DefaultThresholds()
	if thresholds.ConfirmAfter <= 0 {
		thresholds.ConfirmAfter = defaults.ConfirmAfter
	}
	if thresholds.AbandonAfter <= thresholds.ConfirmAfter {
		thresholds.AbandonAfter = defaults.AbandonAfter
	}
	if thresholds.MinDuration <= 0 {
		thresholds.MinDuration = defaults.MinDuration
	}
	return &Engine{thresholds: thresholds}
}

func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Recover classifies the gap between now and the last heartbeat of s.
func (e *Engine) Recover(s model.Session, now time.Time) (Result, error) {
	if s.EntryType != model.EntryTypeTimer {
		return Result{Session: s}, timer.ErrNotTimer
	}
	if s.Status != model.StatusActive {
		return Result{Session: s, Outcome: OutcomeSkipped}, nil
	}

	gap := now.Sub(s.LastHeartbeat)
	switch {
	case gap < 0:
		// Clock skew: never move the heartbeat backwards.
		return Result{Session: s, Outcome: OutcomeRefreshed, Gap: 0}, nil
	case gap <= e.thresholds.ConfirmAfter:
		refreshed, err := timer.Heartbeat(s, now)
		if err != nil {
			return Result{Session: s}, err
		}
		return Result{Session: refreshed, Outcome: OutcomeRefreshed, Gap: gap}, nil
	case gap < e.thresholds.AbandonAfter:
		return e.heal(s, now, gap)
	default:
		return e.abandon(s, now, gap)
	}
}

func (e *Engine) heal(s model.Session, now time.Time, gap time.Duration) (Result, error) {
	history, err := s.PauseHistory.AppendClosed(s.LastHeartbeat, now)
	if err != nil {
		return Result{Session: s}, fmt.Errorf("record silent gap: %w", err)
	}
	s.PauseHistory = history
	s.LastHeartbeat = now
	s.UpdatedAt = now
	return Result{Session: s, Outcome: OutcomeHealed, Gap: gap}, nil
}

func (e *Engine) abandon(s model.Session, now time.Time, gap time.Duration) (Result, error) {
	seconds := duration.NetSeconds(s.StartTime, s.LastHeartbeat, s.PauseHistory)
	if seconds < int64(e.thresholds.MinDuration/time.Second) {
		return Result{Session: s, Outcome: OutcomeDiscardable, Gap: gap}, nil
	}

	completed, err := timer.Stop(s, s.LastHeartbeat, now)
	if err != nil {
		return Result{Session: s}, fmt.Errorf("complete abandoned session: %w", err)
	}
	return Result{Session: completed, Outcome: OutcomeCompleted, Gap: gap}, nil
}
