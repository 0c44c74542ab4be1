package printer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatBytes renders a size with 1024-based units and up to two decimals,
// e.g. "512 B", "1.5 KB", "12.25 MB".
func FormatBytes(n uint64) string {
	units := []string{"B", "KB", "MB"}
	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	return strconv.FormatFloat(math.Round(value*100)/100, 'f', -1, 64) + " " + units[unit]
}

// Progress returns the printed percentage, floored, or -1 when the status
// carries no usable duration.
func (s PrintStatus) Progress() int {
	if s.PrintDurationInSeconds <= 0 || s.TimePrintedInSeconds < 0 {
		return -1
	}
	pct := 100 * s.TimePrintedInSeconds / s.PrintDurationInSeconds
	if pct > 100 {
		pct = 100
	}
	return pct
}

// RemainingSeconds returns the seconds left, or -1 when unknown.
func (s PrintStatus) RemainingSeconds() int {
	if s.PrintDurationInSeconds < 0 || s.TimePrintedInSeconds < 0 {
		return -1
	}
	left := s.PrintDurationInSeconds - s.TimePrintedInSeconds
	if left < 0 {
		return 0
	}
	return left
}

// FormatRemaining renders seconds as "2 hours and 1 minute". Minutes are
// rounded up so a print never claims to be done early.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		return "unknown"
	}
	minutes := (seconds + 59) / 60
	hours, minutes := minutes/60, minutes%60
	return plural(hours, "hour") + " and " + plural(minutes, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatClock renders seconds as hh:mm:ss, or "--:--:--" when unknown.
func FormatClock(seconds int) string {
	if seconds < 0 {
		return "--:--:--"
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

// FormatPrintStatus returns a multi-line description of s.
func FormatPrintStatus(s PrintStatus) string {
	var b strings.Builder

	if !s.IsPrinting {
		b.WriteString("Not printing\n")
		return b.String()
	}

	state := "printing"
	if s.IsPaused {
		state = "paused"
	}
	b.WriteString(fmt.Sprintf("File:      %s (%s)\n", s.FileNameBeingPrinted, state))
	b.WriteString(fmt.Sprintf("Elapsed:   %s / %s\n", FormatClock(s.TimePrintedInSeconds), FormatClock(s.PrintDurationInSeconds)))
	if pct := s.Progress(); pct >= 0 {
		b.WriteString(fmt.Sprintf("Progress:  %d%%\n", pct))
	}
	b.WriteString(fmt.Sprintf("Remaining: %s\n", FormatRemaining(s.RemainingSeconds())))

	return b.String()
}

// FormatPrinterState returns a multi-line temperature summary.
func FormatPrinterState(s PrinterState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Hotend: %s (target %s)\n", s.HotendCurrentTemperature, s.HotendTargetTemperature))
	b.WriteString(fmt.Sprintf("Bed:    %s (target %s)\n", s.BedCurrentTemperature, s.BedTargetTemperature))
	return b.String()
}

// FormatFileList renders one file per line as "id  size  name".
func FormatFileList(list FileList) string {
	if len(list.Files) == 0 {
		return "No files stored\n"
	}
	var b strings.Builder
	for _, f := range list.Files {
		b.WriteString(fmt.Sprintf("%6d  %10s  %s\n", f.FileID(), FormatBytes(f.SizeInBytes), f.Name))
	}
	return b.String()
}

// SplitCommands splits a G-code window into lines, accepting \r\n, \r and
// \n. A trailing newline does not produce an empty line.
func SplitCommands(commands string) []string {
	if commands == "" {
		return nil
	}
	normalized := strings.ReplaceAll(commands, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")
	return strings.Split(normalized, "\n")
}

// GCodeCursor tracks the next line to request while tailing executed G-code.
type GCodeCursor struct {
	next int
}

// Next returns the line to request next.
func (c *GCodeCursor) Next() int {
	return c.next
}

// Advance consumes a window and returns its lines. The cursor moves to the
// line after the last one returned; an empty window leaves it in place.
func (c *GCodeCursor) Advance(w GCodeWindow) []string {
	lines := SplitCommands(w.Commands)
	if len(lines) == 0 {
		return nil
	}
	c.next = w.LineOfFirstCommand + len(lines)
	return lines
}
