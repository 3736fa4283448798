package recovery

import (
	"context"
	"log/slog"
	"time"
)

// Reaper applies recovery to whatever session is currently open.
type Reaper interface {
	Reap(ctx context.Context) error
}

// Sweeper runs a Reaper immediately on Run, then once per Interval until the
// context is cancelled. Reap errors are logged and never stop the loop.
type Sweeper struct {
	Reaper   Reaper
	Interval time.Duration
	Logger   *slog.Logger

	// NewTicker creates a ticker channel and its stop function. If nil,
	// time.NewTicker is used.
	NewTicker func(d time.Duration) (tick <-chan time.Time, stop func())
}

func (s *Sweeper) Run(ctx context.Context) {
	if s.Interval <= 0 {
		return
	}

	s.runOnce(ctx)

	newTicker := s.NewTicker
	if newTicker == nil {
		newTicker = defaultNewTicker
	}
	ch, stop := newTicker(s.Interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	if err := s.Reaper.Reap(ctx); err != nil && s.Logger != nil {
		s.Logger.Warn("reap open session", slog.Any("error", err))
	}
}

func defaultNewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
