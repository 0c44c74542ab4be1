package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/printlink/internal/config"
	"github.com/muurk/printlink/internal/logging"
	"github.com/muurk/printlink/internal/printer"
	"github.com/muurk/printlink/internal/ui"
)

// Global flags
var (
	configPath   string
	logLevel     string
	deviceAddr   string
	waitTimeout  time.Duration
	outputFormat string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the platform config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default is silent")
	rootCmd.PersistentFlags().StringVar(&deviceAddr, "device", "", "Printer IP address (skips discovery)")
	rootCmd.PersistentFlags().DurationVar(&waitTimeout, "timeout", 10*time.Second, "How long to wait for the printer to become reachable")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format (text, json)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(gcodeCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(firmwareCmd)
}

// withPrinter builds the transport stack, waits until the printer is
// reachable and runs fn. Background transport loops stop when fn returns.
func withPrinter(cmd *cobra.Command, fn func(ctx context.Context, st *stack) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := buildStack(cfg, stackOptions{Device: deviceAddr})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	stop := st.start(ctx)
	defer stop()

	active, err := st.waitReady(ctx, waitTimeout)
	if err != nil {
		return fmt.Errorf("no route to the printer after %s: %w", waitTimeout, err)
	}
	logging.Info("Printer reachable",
		zap.String("transport", active.Name()),
		zap.String("addr", st.lockedAddr(active)),
	)

	return fn(ctx, st)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func jsonOutput() bool {
	return outputFormat == "json"
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running print",
	Example: `  # Status through whichever transport is reachable
  printlink status

  # Skip discovery
  printlink status --device 192.168.1.42`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrinter(cmd, func(ctx context.Context, st *stack) error {
			status, ok := st.client.PrintStatus(ctx)
			if !ok {
				return fmt.Errorf("failed to read print status")
			}
			if jsonOutput() {
				return printJSON(status)
			}

			fmt.Print(printer.FormatPrintStatus(status))
			if status.IsPrinting {
				fmt.Println(ui.PrintProgress(status.Progress(), ui.GetTerminalWidth()))
			}
			return nil
		})
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show hotend and bed temperatures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrinter(cmd, func(ctx context.Context, st *stack) error {
			state, ok := st.client.PrinterState(ctx)
			if !ok {
				return fmt.Errorf("failed to read printer state")
			}
			if jsonOutput() {
				return printJSON(state)
			}
			fmt.Print(printer.FormatPrinterState(state))
			return nil
		})
	},
}

var filesCmd = &cobra.Command{
	Use:     "files",
	Aliases: []string{"ls"},
	Short:   "List files stored on the printer",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrinter(cmd, func(ctx context.Context, st *stack) error {
			list, ok := st.client.ListFiles(ctx)
			if !ok {
				return fmt.Errorf("failed to list files")
			}
			if jsonOutput() {
				return printJSON(list)
			}
			fmt.Print(printer.FormatFileList(list))
			return nil
		})
	},
}

func parseFileID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file id %q: %w", s, err)
	}
	return uint32(id), nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete <file-id>",
	Short: "Delete a stored file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseFileID(args[0])
		if err != nil {
			return err
		}
		return withPrinter(cmd, func(ctx context.Context, st *stack) error {
			if err := st.client.DeleteFile(ctx, id); err != nil {
				return fmt.Errorf("failed to delete file %d: %w", id, err)
			}
			fmt.Println(ui.RenderSuccess("File deleted", ui.Param{Key: "File", Value: args[0]}))
			return nil
		})
	},
}

var printCmd = &cobra.Command{
	Use:   "print <file-id>",
	Short: "Start printing a stored file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseFileID(args[0])
		if err != nil {
			return err
		}
		return withPrinter(cmd, func(ctx context.Context, st *stack) error {
			if err := st.client.PrintFile(ctx, id); err != nil {
				return fmt.Errorf("failed to start print: %w", err)
			}
			fmt.Println(ui.RenderSuccess("Print started", ui.Param{Key: "File", Value: args[0]}))
			return nil
		})
	},
}

var uploadName string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a G-code file to the printer",
	Example: `  printlink upload benchy.gcode
  printlink upload out/part.gcode --name bracket.gcode`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()

		name := uploadName
		if name == "" {
			name = filepath.Base(args[0])
		}

		return withPrinter(cmd, func(ctx context.Context, st *stack) error {
			if err := st.client.UploadFile(ctx, name, f); err != nil {
				return fmt.Errorf("failed to upload %s: %w", name, err)
			}
			fmt.Println(ui.RenderSuccess("File uploaded", ui.Param{Key: "Name", Value: name}))
			return nil
		})
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "Name stored on the printer (default is the file's base name)")
}

var pauseCmd = &cobra.Command{
	Use:     "pause",
	Aliases: []string{"resume"},
	Short:   "Pause or resume the running print",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrinter(cmd, func(ctx context.Context, st *stack) error {
			if err := st.client.PauseOrResume(ctx); err != nil {
				return fmt.Errorf("failed to pause or resume: %w", err)
			}
			if status, ok := st.client.PrintStatus(ctx); ok && status.IsPrinting {
				state := "resumed"
				if status.IsPaused {
					state = "paused"
				}
				fmt.Println(ui.RenderSuccess("Print "+state, ui.Param{Key: "File", Value: status.FileNameBeingPrinted}))
				return nil
			}
			fmt.Println(ui.RenderSuccess("Pause toggled"))
			return nil
		})
	},
}

var gcodeCmd = &cobra.Command{
	Use:   "gcode",
	Short: "Send or follow G-code commands",
}

var gcodeSendCmd = &cobra.Command{
	Use:   "send <line>...",
	Short: "Send G-code lines to the printer",
	Example: `  printlink gcode send G28
  printlink gcode send "G1 X10 Y10" M105`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrinter(cmd, func(ctx context.Context, st *stack) error {
			if err := st.client.SendGCode(ctx, args); err != nil {
				return fmt.Errorf("failed to send G-code: %w", err)
			}
			fmt.Println(ui.RenderSuccess("G-code sent", ui.Param{Key: "Lines", Value: strconv.Itoa(len(args))}))
			return nil
		})
	},
}

var (
	tailFrom     int
	tailFollow   bool
	tailInterval time.Duration
)

var gcodeTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print G-code the printer has executed",
	Example: `  # Print the buffered window once
  printlink gcode tail

  # Keep following new lines
  printlink gcode tail --follow`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrinter(cmd, func(ctx context.Context, st *stack) error {
			return tailGCode(ctx, st.client, os.Stdout, tailOptions{From: tailFrom, Follow: tailFollow, Interval: tailInterval})
		})
	},
}

type gcodeSource interface {
	GCodeLines(ctx context.Context, startLine int) (printer.GCodeWindow, bool)
}

type tailOptions struct {
	From     int
	Follow   bool
	Interval time.Duration
}

// tailGCode writes executed G-code to out, starting at opts.From. With
// Follow it keeps polling until ctx is done.
func tailGCode(ctx context.Context, src gcodeSource, out io.Writer, opts tailOptions) error {
	var cursor printer.GCodeCursor
	next := opts.From

	fetch := func() error {
		window, ok := src.GCodeLines(ctx, next)
		if !ok {
			return fmt.Errorf("failed to read G-code window")
		}
		lines := cursor.Advance(window)
		if len(lines) > 0 {
			next = cursor.Next()
			fmt.Fprintln(out, strings.Join(lines, "\n"))
		}
		return nil
	}

	if err := fetch(); err != nil || !opts.Follow {
		return err
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := fetch(); err != nil {
				logging.Warn("G-code tail fetch failed", zap.Error(err))
			}
		}
	}
}

func init() {
	gcodeTailCmd.Flags().IntVar(&tailFrom, "from", 0, "First line to request")
	gcodeTailCmd.Flags().BoolVarP(&tailFollow, "follow", "f", false, "Keep polling for new lines")
	gcodeTailCmd.Flags().DurationVar(&tailInterval, "interval", time.Second, "Polling interval with --follow")

	gcodeCmd.AddCommand(gcodeSendCmd)
	gcodeCmd.AddCommand(gcodeTailCmd)
}

var moveCmd = &cobra.Command{
	Use:   "move <axis> <distance>",
	Short: "Jog one axis; a negative distance moves backwards",
	Example: `  printlink move z 10
  printlink move x -5.5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		axis, err := printer.ParseAxis(args[0])
		if err != nil {
			return err
		}
		distance, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid distance %q: %w", args[1], err)
		}
		return withPrinter(cmd, func(ctx context.Context, st *stack) error {
			if err := st.client.Move(ctx, axis, distance); err != nil {
				return fmt.Errorf("failed to move %s: %w", axis, err)
			}
			fmt.Println(ui.RenderSuccess("Move sent",
				ui.Param{Key: "Axis", Value: string(axis)},
				ui.Param{Key: "Distance", Value: args[1]},
			))
			return nil
		})
	},
}

var firmwareYes bool

var firmwareCmd = &cobra.Command{
	Use:   "firmware <image>",
	Short: "Install a firmware image over the air",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open firmware image: %w", err)
		}
		defer f.Close()

		if !firmwareYes && !ui.Confirm(os.Stdin, os.Stdout, "Firmware update",
			"The printer reboots when the update completes",
			"Do not power off the printer during the update",
			"A running print is aborted",
		) {
			fmt.Println(ui.MutedStyle.Render("  Update cancelled."))
			return nil
		}

		return withPrinter(cmd, func(ctx context.Context, st *stack) error {
			if err := st.client.UpdateFirmware(ctx, f); err != nil {
				return fmt.Errorf("firmware update failed: %w", err)
			}
			fmt.Println(ui.RenderSuccess("Firmware sent", ui.Param{Key: "Image", Value: filepath.Base(args[0])}))
			return nil
		})
	},
}

func init() {
	firmwareCmd.Flags().BoolVarP(&firmwareYes, "yes", "y", false, "Skip the confirmation prompt")
}
