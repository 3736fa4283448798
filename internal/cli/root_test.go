package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	dbPath        string
	migrationsDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	_, currentFile, _, _ := runtime.Caller(0)
	return &harness{
		dbPath:        filepath.Join(t.TempDir(), "timelog.db"),
		migrationsDir: filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations"),
	}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db", h.dbPath, "--migrations", h.migrationsDir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandAliases(t *testing.T) {
	t.Parallel()

	root := NewRootCommand()
	tests := []struct {
		input   []string
		wantUse string
	}{
		{input: []string{"s"}, wantUse: "start"},
		{input: []string{"stp"}, wantUse: "stop"},
		{input: []string{"ls"}, wantUse: "list"},
		{input: []string{"a", "ls"}, wantUse: "list"},
		{input: []string{"a", "remove"}, wantUse: "rm"},
	}

	for _, tc := range tests {
		cmd, _, err := root.Find(tc.input)
		require.NoError(t, err)
		require.Equal(t, tc.wantUse, cmd.Name(), "input %v", tc.input)
	}
}

func TestTimerCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "activity", "add", "Reading", "--color", "#112233")
	require.NoError(t, err)
	require.Contains(t, out, "Created activity")

	out, err = h.run(t, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "No timer running")

	_, err = h.run(t, "", "pause")
	require.ErrorIs(t, err, errNoRunningTimer)

	out, err = h.run(t, "", "start", "reading")
	require.NoError(t, err)
	require.Contains(t, out, "Started")

	_, err = h.run(t, "", "start", "Reading")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already running")

	out, err = h.run(t, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "Reading")
	require.Contains(t, out, "active")

	out, err = h.run(t, "", "pause")
	require.NoError(t, err)
	require.Contains(t, out, "Paused")

	out, err = h.run(t, "", "recover")
	require.NoError(t, err)
	require.Contains(t, out, "nothing to recover")

	out, err = h.run(t, "", "resume")
	require.NoError(t, err)
	require.Contains(t, out, "Resumed")

	out, err = h.run(t, "", "stop")
	require.NoError(t, err)
	require.Contains(t, out, "Stopped")

	out, err = h.run(t, "", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Reading")
	require.Contains(t, out, "completed")
}

func TestLogAndDiscardCommands(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "activity", "add", "Writing")
	require.NoError(t, err)

	end := time.Now().UTC().Add(-time.Minute).Truncate(time.Second)
	start := end.Add(-45 * time.Minute)
	out, err := h.run(t, "", "log", "Writing", "--from", start.Format(time.RFC3339), "--to", end.Format(time.RFC3339))
	require.NoError(t, err)
	require.Contains(t, out, "Logged 45m00s")

	_, err = h.run(t, "", "log", "Writing", "--from", start.Format(time.RFC3339), "--to", end.Format(time.RFC3339))
	require.Error(t, err)
	require.Contains(t, err.Error(), "overlaps")

	_, err = h.run(t, "", "start", "Writing")
	require.NoError(t, err)
	out, err = h.run(t, "", "discard")
	require.NoError(t, err)
	require.Contains(t, out, "Discarded")

	out, err = h.run(t, "", "activity", "rm", "writing")
	require.NoError(t, err)
	require.Contains(t, out, "Deleted activity")

	out, err = h.run(t, "", "activity", "list")
	require.NoError(t, err)
	require.Contains(t, out, "No activities yet")
}

func TestHashPasswordCommand(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "hunter22\n", "hash-password")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter22")))

	_, err = h.run(t, "", "hash-password")
	require.Error(t, err)
}

func TestListRange(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.Local)
	start, end, err := listRange("", "", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local), start)
	require.Equal(t, 24*time.Hour, end.Sub(start))

	_, _, err = listRange("2026-03-02T10:00:00Z", "2026-03-02T09:00:00Z", now)
	require.Error(t, err)
}

func TestFormatSeconds(t *testing.T) {
	require.Equal(t, "0s", formatSeconds(0))
	require.Equal(t, "2m05s", formatSeconds(125))
	require.Equal(t, "1h05m", formatSeconds(3900))
}
