package printer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muurk/printlink/internal/logging"
	"github.com/muurk/printlink/internal/request"
	"github.com/muurk/printlink/internal/transport"
	"go.uber.org/zap"
)

// Client performs typed printer operations through a Router.
type Client struct {
	router *transport.Router
}

// NewClient creates a client routing through router.
func NewClient(router *transport.Router) *Client {
	return &Client{router: router}
}

// ListFiles returns the files stored on the printer.
func (c *Client) ListFiles(ctx context.Context) (FileList, bool) {
	return transport.RouteJSON[FileList](ctx, c.router, transport.NewRequest(request.ListFiles))
}

// PrintStatus returns the running print, if any.
func (c *Client) PrintStatus(ctx context.Context) (PrintStatus, bool) {
	return transport.RouteJSON[PrintStatus](ctx, c.router, transport.NewRequest(request.GetPrintStatus))
}

// PrinterState returns the current temperatures.
func (c *Client) PrinterState(ctx context.Context) (PrinterState, bool) {
	return transport.RouteJSON[PrinterState](ctx, c.router, transport.NewRequest(request.PrinterState))
}

// GCodeLines returns executed G-code from startLine on. The line is sent
// both as the Starting-Line header and in the body.
func (c *Client) GCodeLines(ctx context.Context, startLine int) (GCodeWindow, bool) {
	body, err := marshalBody(GCodeWindowRequest{RequestedLine: startLine})
	if err != nil {
		return GCodeWindow{}, false
	}
	req := transport.NewRequestWithBody(request.ListGCodeCommandsInMemory, body)
	req.Header.Set("Starting-Line", strconv.Itoa(startLine))
	return transport.RouteJSON[GCodeWindow](ctx, c.router, req)
}

// DeleteFile removes a stored file.
func (c *Client) DeleteFile(ctx context.Context, id uint32) error {
	return c.withFileID(ctx, request.DeleteFile, id)
}

// PrintFile starts printing a stored file.
func (c *Client) PrintFile(ctx context.Context, id uint32) error {
	return c.withFileID(ctx, request.PrintFile, id)
}

func (c *Client) withFileID(ctx context.Context, kind request.Kind, id uint32) error {
	body, err := marshalBody(FileID{FileID: id})
	if err != nil {
		return err
	}
	return c.do(ctx, transport.NewRequestWithBody(kind, body))
}

// PauseOrResume toggles the pause state of the running print.
func (c *Client) PauseOrResume(ctx context.Context) error {
	return c.do(ctx, transport.NewRequest(request.PauseOrResume))
}

// SendGCode injects lines into the printer's command buffer.
func (c *Client) SendGCode(ctx context.Context, lines []string) error {
	text := strings.Join(lines, "\n")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no G-code to send")
	}
	body, err := marshalBody(SendGCodeRequest{GCode: text, Commands: text})
	if err != nil {
		return err
	}
	return c.do(ctx, transport.NewRequestWithBody(request.SendGCodeCommands, body))
}

// Move jogs axis by distance; the sign gives the direction.
func (c *Client) Move(ctx context.Context, axis Axis, distance float64) error {
	body, err := marshalBody(MoveRequest{Axis: axis, Direction: distance})
	if err != nil {
		return err
	}
	return c.do(ctx, transport.NewRequestWithBody(request.Move, body))
}

// UploadFile stores a G-code file named name on the printer.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) error {
	if name == "" {
		return fmt.Errorf("file name is required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	req := rawRequest(request.SendFile, data)
	req.Header.Set("File-Name", name)
	return c.do(ctx, req)
}

// UpdateFirmware streams a firmware image to the printer.
func (c *Client) UpdateFirmware(ctx context.Context, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read firmware image: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("firmware image is empty")
	}
	return c.do(ctx, rawRequest(request.OTAUpdate, data))
}

func rawRequest(kind request.Kind, data []byte) *transport.Request {
	req := transport.NewRequestWithBody(kind, data)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Length", strconv.Itoa(len(data)))
	return req
}

// do routes a mutation and rejects non-2xx answers.
func (c *Client) do(ctx context.Context, req *transport.Request) error {
	resp, err := c.router.Route(ctx, req)
	if err != nil {
		return err
	}
	if err := transport.CheckStatus(resp); err != nil {
		logging.Warn("Printer rejected request",
			zap.String("kind", req.Kind.String()),
			zap.Int("status_code", resp.StatusCode),
		)
		return err
	}
	return nil
}

// Reachable reports whether any transport can reach the printer right now.
func (c *Client) Reachable() bool {
	_, ok := c.router.Active()
	return ok
}
