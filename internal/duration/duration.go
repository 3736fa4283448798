// Package duration computes paused and net tracked time for sessions.
package duration

import (
	"time"

	"timelog/internal/model"
)

// TotalPause sums closed pause intervals. Open intervals contribute nothing.
func TotalPause(history model.PauseHistory) time.Duration {
	var total time.Duration
	for _, p := range history.Intervals() {
		total += p.Duration()
	}
	return total
}

// NetSeconds is the elapsed time between start and end minus closed pauses,
// rounded to whole seconds (halves round up) and clamped at zero.
func NetSeconds(start, end time.Time, history model.PauseHistory) int64 {
	net := end.Sub(start) - TotalPause(history)
	if net <= 0 {
		return 0
	}
	return int64(net.Round(time.Second) / time.Second)
}
