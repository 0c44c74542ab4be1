// Printlink finds a 3D printer on the local network and talks to it.
//
// The printer is reached through whichever transport is available first:
// a concurrent scan of the LAN, an mDNS advertisement, or a websocket relay
// to another printlink that can see the printer. Commands then list and
// print files, report status and temperatures, send G-code and follow the
// printer live in a terminal dashboard.
//
// Usage:
//
//	printlink [command] [flags]
//
// See 'printlink --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/printlink/internal/logging"
	"github.com/muurk/printlink/internal/transport"
	"github.com/muurk/printlink/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var terr *transport.Error
		if errors.Is(err, transport.ErrUnreachable) || errors.As(err, &terr) {
			fmt.Fprintf(os.Stderr, "\n%s\n", transport.Hint(err))
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "printlink",
	Short: "Find and control a network 3D printer",
	Long: `Find a 3D printer on the local network and control it.

The printer is located by scanning the LAN for its HTTPS endpoint, by
mDNS, or through a websocket relay, in the order set in the config file.
The first transport that can reach the printer carries every request.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("printlink %s\n", version.Full())
	},
}
