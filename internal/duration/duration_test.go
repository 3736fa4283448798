package duration_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelog/internal/duration"
	"timelog/internal/model"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return t0.Add(time.Duration(seconds) * time.Second)
}

func TestTotalPause(t *testing.T) {
	h, err := model.PauseHistory{}.AppendClosed(at(10), at(40))
	require.NoError(t, err)
	h, err = h.AppendClosed(at(50), at(55))
	require.NoError(t, err)
	h, err = h.Open(at(60))
	require.NoError(t, err)

	assert.Equal(t, 35*time.Second, duration.TotalPause(h))
	assert.Zero(t, duration.TotalPause(model.PauseHistory{}))
}

func TestNetSeconds(t *testing.T) {
	oneCycle, err := model.PauseHistory{}.AppendClosed(at(10), at(40))
	require.NoError(t, err)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		history model.PauseHistory
		want    int64
	}{
		{name: "no pauses", start: at(0), end: at(100), want: 100},
		{name: "one pause cycle", start: at(0), end: at(100), history: oneCycle, want: 70},
		{name: "rounds half up", start: at(0), end: at(10).Add(500 * time.Millisecond), want: 11},
		{name: "rounds down below half", start: at(0), end: at(10).Add(499 * time.Millisecond), want: 10},
		{name: "end before start clamps", start: at(100), end: at(0), want: 0},
		{name: "pauses exceeding span clamp", start: at(0), end: at(20), history: oneCycle, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, duration.NetSeconds(tt.start, tt.end, tt.history))
		})
	}
}
