package printer

import (
	"encoding/json"
	"fmt"
)

// FileID identifies a stored file.
type FileID struct {
	FileID uint32 `json:"FileID"`
}

// File is one entry of the list-files response.
//
// The control client reads the id nested as {"ID": {"FileID": n}} while the
// firmware writes a flat "fileId"; both are accepted.
type File struct {
	Name        string  `json:"Name"`
	SizeInBytes uint64  `json:"SizeInBytes"`
	ID          *FileID `json:"ID,omitempty"`
	FlatID      *uint32 `json:"fileId,omitempty"`
}

// FileID returns the file's id whichever shape carried it.
func (f File) FileID() uint32 {
	if f.ID != nil {
		return f.ID.FileID
	}
	if f.FlatID != nil {
		return *f.FlatID
	}
	return 0
}

// FileList is the list-files response.
type FileList struct {
	Files []File `json:"Files"`
}

// PrintStatus is the print-status response. Durations are -1 when unknown.
type PrintStatus struct {
	IsPrinting             bool   `json:"isPrinting"`
	FileNameBeingPrinted   string `json:"fileNameBeingPrinted"`
	PrintDurationInSeconds int    `json:"printDurationInSeconds"`
	TimePrintedInSeconds   int    `json:"timePrintedInSeconds"`
	IsPaused               bool   `json:"isPaused"`
}

// Temperature is a reading as reported by the firmware; negative means
// the sensor has no sample yet.
type Temperature float64

// Known reports whether the reading is available.
func (t Temperature) Known() bool {
	return t >= 0
}

// String formats the reading, or "n/a" when unknown.
func (t Temperature) String() string {
	if !t.Known() {
		return "n/a"
	}
	return fmt.Sprintf("%.0f°", float64(t))
}

// PrinterState is the printer-state response.
type PrinterState struct {
	HotendCurrentTemperature Temperature `json:"hotendCurrentTemperature"`
	HotendTargetTemperature  Temperature `json:"hotendTargetTemperature"`
	BedCurrentTemperature    Temperature `json:"bedCurrentTemperature"`
	BedTargetTemperature     Temperature `json:"bedTargetTemperature"`
}

// GCodeWindowRequest asks for executed G-code starting at a line.
type GCodeWindowRequest struct {
	RequestedLine int `json:"requestedLine"`
}

// GCodeWindow is the list-gcode-commands-in-memory response.
type GCodeWindow struct {
	LineOfFirstCommand int    `json:"lineOfFirstCommand"`
	Commands           string `json:"commands"`
}

// SendGCodeRequest injects G-code lines. The control client sends "gcode",
// the firmware reads "commands"; both carry the same text.
type SendGCodeRequest struct {
	GCode    string `json:"gcode"`
	Commands string `json:"commands"`
}

// Axis is a motion axis.
type Axis string

const (
	AxisX Axis = "X"
	AxisY Axis = "Y"
	AxisZ Axis = "Z"
)

// ParseAxis accepts x, y or z in either case.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	default:
		return "", fmt.Errorf("unknown axis %q (use X, Y or Z)", s)
	}
}

// MoveRequest jogs one axis by a signed distance.
type MoveRequest struct {
	Axis      Axis    `json:"axis"`
	Direction float64 `json:"direction"`
}

func marshalBody(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}
