package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent  = "#7C3AED"
	colorMuted   = "#6D7383"
	colorError   = "#EF4444"
	colorSuccess = "#22C55E"
	colorWarning = "#F59E0B"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess)).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarning)).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorError)).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func printOK(out io.Writer, format string, args ...any) {
	printTagged(out, okStyle.Render("[OK]"), format, args...)
}

func printWarn(out io.Writer, format string, args ...any) {
	printTagged(out, warnStyle.Render("[WARN]"), format, args...)
}

// PrintError writes err the way commands report failures.
func PrintError(out io.Writer, err error) {
	printTagged(out, errorStyle.Render("[ERROR]"), "%v", err)
}

func printTagged(out io.Writer, tag, format string, args ...any) {
	fmt.Fprintf(out, "%s %s\n", tag, fmt.Sprintf(format, args...))
}

func formatSeconds(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)
	s := int64((d % time.Minute) / time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func formatClock(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
