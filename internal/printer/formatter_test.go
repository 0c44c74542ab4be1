package printer

import (
	"reflect"
	"strings"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1 MB"},
		{12*1024*1024 + 256*1024, "12.25 MB"},
		{3 * 1024 * 1024 * 1024, "3072 MB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{-1, "unknown"},
		{0, "0 hours and 0 minutes"},
		{1, "0 hours and 1 minute"},
		{60, "0 hours and 1 minute"},
		{61, "0 hours and 2 minutes"},
		{3600, "1 hour and 0 minutes"},
		{3900, "1 hour and 5 minutes"},
		{7260, "2 hours and 1 minute"},
	}

	for _, tt := range tests {
		if got := FormatRemaining(tt.seconds); got != tt.want {
			t.Errorf("FormatRemaining(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(3725); got != "01:02:05" {
		t.Errorf("FormatClock(3725) = %q", got)
	}
	if got := FormatClock(-1); got != "--:--:--" {
		t.Errorf("FormatClock(-1) = %q", got)
	}
}

func TestPrintStatus_Progress(t *testing.T) {
	tests := []struct {
		name   string
		status PrintStatus
		want   int
	}{
		{"not printing", PrintStatus{PrintDurationInSeconds: -1, TimePrintedInSeconds: -1}, -1},
		{"start", PrintStatus{PrintDurationInSeconds: 300, TimePrintedInSeconds: 0}, 0},
		{"floors", PrintStatus{PrintDurationInSeconds: 3, TimePrintedInSeconds: 2}, 66},
		{"overrun", PrintStatus{PrintDurationInSeconds: 100, TimePrintedInSeconds: 130}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Progress(); got != tt.want {
				t.Errorf("Progress() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatPrintStatus(t *testing.T) {
	idle := FormatPrintStatus(PrintStatus{PrintDurationInSeconds: -1, TimePrintedInSeconds: -1})
	if !strings.Contains(idle, "Not printing") {
		t.Errorf("idle status = %q", idle)
	}

	out := FormatPrintStatus(PrintStatus{
		IsPrinting:             true,
		IsPaused:               true,
		FileNameBeingPrinted:   "benchy.gcode",
		PrintDurationInSeconds: 3600,
		TimePrintedInSeconds:   900,
	})
	for _, part := range []string{"benchy.gcode", "paused", "00:15:00", "01:00:00", "25%", "0 hours and 45 minutes"} {
		if !strings.Contains(out, part) {
			t.Errorf("FormatPrintStatus() missing %q in:\n%s", part, out)
		}
	}
}

func TestFormatPrinterState(t *testing.T) {
	out := FormatPrinterState(PrinterState{
		HotendCurrentTemperature: 473,
		HotendTargetTemperature:  -1,
		BedCurrentTemperature:    -1,
		BedTargetTemperature:     -1,
	})
	if !strings.Contains(out, "473°") || !strings.Contains(out, "n/a") {
		t.Errorf("FormatPrinterState() = %q", out)
	}
}

func TestFormatFileList(t *testing.T) {
	id := uint32(12)
	out := FormatFileList(FileList{Files: []File{{Name: "a.gcode", SizeInBytes: 2048, FlatID: &id}}})
	for _, part := range []string{"12", "2 KB", "a.gcode"} {
		if !strings.Contains(out, part) {
			t.Errorf("FormatFileList() missing %q in %q", part, out)
		}
	}
	if got := FormatFileList(FileList{}); !strings.Contains(got, "No files") {
		t.Errorf("empty list = %q", got)
	}
}

func TestSplitCommands(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"G28", []string{"G28"}},
		{"G28\nG1\n", []string{"G28", "G1"}},
		{"G28\r\nG1\rM105", []string{"G28", "G1", "M105"}},
		{"G28\n\nG1", []string{"G28", "", "G1"}},
	}

	for _, tt := range tests {
		if got := SplitCommands(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitCommands(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGCodeCursor(t *testing.T) {
	var cursor GCodeCursor

	lines := cursor.Advance(GCodeWindow{LineOfFirstCommand: 10, Commands: "G1\nG2\nG3"})
	if len(lines) != 3 || cursor.Next() != 13 {
		t.Fatalf("after first window: lines=%v next=%d", lines, cursor.Next())
	}

	if lines := cursor.Advance(GCodeWindow{LineOfFirstCommand: 13}); lines != nil || cursor.Next() != 13 {
		t.Errorf("empty window moved the cursor: lines=%v next=%d", lines, cursor.Next())
	}

	cursor.Advance(GCodeWindow{LineOfFirstCommand: 13, Commands: "G4\r\n"})
	if cursor.Next() != 14 {
		t.Errorf("Next() = %d, want 14", cursor.Next())
	}
}
