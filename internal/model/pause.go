package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrPauseAlreadyOpen  = errors.New("pause interval already open")
	ErrNoOpenPause       = errors.New("no open pause interval")
	ErrResumeBeforePause = errors.New("resume time must be after pause time")
	ErrPauseOutOfOrder   = errors.New("pause interval starts before the previous one ended")
)

type PauseInterval struct {
	PauseTime  time.Time  `json:"pauseTime"`
	ResumeTime *time.Time `json:"resumeTime,omitempty"`
}

func (p PauseInterval) Closed() bool {
	return p.ResumeTime != nil
}

// Duration is zero for an open interval.
func (p PauseInterval) Duration() time.Duration {
	if p.ResumeTime == nil {
		return 0
	}
	return p.ResumeTime.Sub(p.PauseTime)
}

func (p PauseInterval) clone() PauseInterval {
	out := PauseInterval{PauseTime: p.PauseTime}
	if p.ResumeTime != nil {
		resume := *p.ResumeTime
		out.ResumeTime = &resume
	}
	return out
}

// PauseHistory is an append-only log of pause intervals. Every operation
// returns a new value; the receiver is never modified. Only the last interval
// may be open.
type PauseHistory struct {
	intervals []PauseInterval
}

// NewPauseHistory validates the given intervals and returns them as a history.
func NewPauseHistory(intervals ...PauseInterval) (PauseHistory, error) {
	h := PauseHistory{}
	for i, p := range intervals {
		if p.Closed() && !p.ResumeTime.After(p.PauseTime) {
			return PauseHistory{}, fmt.Errorf("interval %d: %w", i, ErrResumeBeforePause)
		}
		if !p.Closed() && i != len(intervals)-1 {
			return PauseHistory{}, fmt.Errorf("interval %d: %w", i, ErrPauseAlreadyOpen)
		}
		if i > 0 && p.PauseTime.Before(*intervals[i-1].ResumeTime) {
			return PauseHistory{}, fmt.Errorf("interval %d: %w", i, ErrPauseOutOfOrder)
		}
		h.intervals = append(h.intervals, p.clone())
	}
	return h, nil
}

func (h PauseHistory) Len() int {
	return len(h.intervals)
}

// Intervals returns a copy of the recorded intervals.
func (h PauseHistory) Intervals() []PauseInterval {
	out := make([]PauseInterval, len(h.intervals))
	for i, p := range h.intervals {
		out[i] = p.clone()
	}
	return out
}

func (h PauseHistory) Last() (PauseInterval, bool) {
	if len(h.intervals) == 0 {
		return PauseInterval{}, false
	}
	return h.intervals[len(h.intervals)-1].clone(), true
}

func (h PauseHistory) HasOpen() bool {
	last, ok := h.Last()
	return ok && !last.Closed()
}

// LastBoundary is the latest pause or resume instant recorded, or the zero
// time for an empty history.
func (h PauseHistory) LastBoundary() time.Time {
	last, ok := h.Last()
	if !ok {
		return time.Time{}
	}
	if last.ResumeTime != nil {
		return *last.ResumeTime
	}
	return last.PauseTime
}

// Open appends an open interval starting at the given instant.
func (h PauseHistory) Open(at time.Time) (PauseHistory, error) {
	if h.HasOpen() {
		return h, ErrPauseAlreadyOpen
	}
	if at.Before(h.LastBoundary()) {
		return h, ErrPauseOutOfOrder
	}
	return h.with(PauseInterval{PauseTime: at}), nil
}

// Close replaces the open last interval with a closed copy ending at the
// given instant.
func (h PauseHistory) Close(at time.Time) (PauseHistory, error) {
	last, ok := h.Last()
	if !ok || last.Closed() {
		return h, ErrNoOpenPause
	}
	if !at.After(last.PauseTime) {
		return h, ErrResumeBeforePause
	}
	resume := at
	last.ResumeTime = &resume

	out := PauseHistory{intervals: make([]PauseInterval, 0, len(h.intervals))}
	out.intervals = append(out.intervals, h.intervals[:len(h.intervals)-1]...)
	out.intervals = append(out.intervals, last)
	return out, nil
}

// AppendClosed appends an already closed interval.
func (h PauseHistory) AppendClosed(pause, resume time.Time) (PauseHistory, error) {
	if h.HasOpen() {
		return h, ErrPauseAlreadyOpen
	}
	if !resume.After(pause) {
		return h, ErrResumeBeforePause
	}
	if pause.Before(h.LastBoundary()) {
		return h, ErrPauseOutOfOrder
	}
	resumeAt := resume
	return h.with(PauseInterval{PauseTime: pause, ResumeTime: &resumeAt}), nil
}

func (h PauseHistory) with(p PauseInterval) PauseHistory {
	out := PauseHistory{intervals: make([]PauseInterval, 0, len(h.intervals)+1)}
	out.intervals = append(out.intervals, h.intervals...)
	out.intervals = append(out.intervals, p)
	return out
}

func (h PauseHistory) MarshalJSON() ([]byte, error) {
	if h.intervals == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h.intervals)
}

func (h *PauseHistory) UnmarshalJSON(data []byte) error {
	var intervals []PauseInterval
	if err := json.Unmarshal(data, &intervals); err != nil {
		return err
	}
	parsed, err := NewPauseHistory(intervals...)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
