package request

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind identifies a semantic printer operation, independent of its wire path.
type Kind int

const (
	// ListFiles lists the G-code files stored on the printer.
	ListFiles Kind = iota
	// DeleteFile removes a stored file by id.
	DeleteFile
	// PrintFile starts printing a stored file by id.
	PrintFile
	// SendFile uploads a G-code file.
	SendFile
	// GetPrintStatus reports the running print, if any.
	GetPrintStatus
	// PauseOrResume toggles the pause state of the running print.
	PauseOrResume
	// PrinterState reports hotend and bed temperatures.
	PrinterState
	// ListGCodeCommandsInMemory returns a window of recently executed G-code lines.
	ListGCodeCommandsInMemory
	// SendGCodeCommands injects G-code lines into the command buffer.
	SendGCodeCommands
	// Move jogs the tool head along one axis.
	Move
	// OTAUpdate streams a firmware image to the printer.
	OTAUpdate

	kindCount
)

// Kinds returns every Kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, int(kindCount))
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// PathFor returns the path segment (no leading slash) of the endpoint that
// serves kind. It panics for a value outside the enumeration.
func PathFor(kind Kind) string {
	switch kind {
	case ListFiles:
		return "list-files"
	case DeleteFile:
		return "delete-file"
	case PrintFile:
		return "print-file"
	case SendFile:
		return "send-file"
	case GetPrintStatus:
		return "print-status"
	case PauseOrResume:
		return "pause-or-resume"
	case PrinterState:
		return "printer-state"
	case ListGCodeCommandsInMemory:
		return "list-gcode-commands-in-memory"
	case SendGCodeCommands:
		return "send-gcode-commands"
	case Move:
		return "move"
	case OTAUpdate:
		return "ota-update"
	default:
		panic(fmt.Sprintf("request: no path mapped for %s", kind))
	}
}

// MethodFor returns the HTTP method the firmware registers for kind.
func MethodFor(kind Kind) string {
	switch kind {
	case ListFiles, GetPrintStatus, PrinterState, ListGCodeCommandsInMemory:
		return http.MethodGet
	case DeleteFile:
		return http.MethodDelete
	case PrintFile, SendFile, PauseOrResume, SendGCodeCommands, Move, OTAUpdate:
		return http.MethodPost
	default:
		panic(fmt.Sprintf("request: no method mapped for %s", kind))
	}
}

// String returns the Go-style name of the kind (e.g. "ListFiles").
func (k Kind) String() string {
	switch k {
	case ListFiles:
		return "ListFiles"
	case DeleteFile:
		return "DeleteFile"
	case PrintFile:
		return "PrintFile"
	case SendFile:
		return "SendFile"
	case GetPrintStatus:
		return "GetPrintStatus"
	case PauseOrResume:
		return "PauseOrResume"
	case PrinterState:
		return "PrinterState"
	case ListGCodeCommandsInMemory:
		return "ListGCodeCommandsInMemory"
	case SendGCodeCommands:
		return "SendGCodeCommands"
	case Move:
		return "Move"
	case OTAUpdate:
		return "OTAUpdate"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind resolves either a kind name ("ListFiles") or a wire path
// ("list-files", "/list-files") back to its Kind.
func ParseKind(s string) (Kind, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "/")
	for _, k := range Kinds() {
		if strings.EqualFold(trimmed, k.String()) || trimmed == PathFor(k) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown request kind %q", s)
}
