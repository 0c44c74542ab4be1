package main

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/printlink/internal/config"
	"github.com/muurk/printlink/internal/discovery"
	"github.com/muurk/printlink/internal/monitor"
	"github.com/muurk/printlink/internal/relay"
	"github.com/muurk/printlink/internal/transport"
	"github.com/muurk/printlink/internal/ui"
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(configCmd)
}

var (
	scanMDNS bool
	scanSave bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find the printer on the local network",
	Long: `Scan the configured subnet for the printer.

Every candidate address is probed concurrently with a HEAD request to the
printer's discovery endpoint. The first address to answer is reported.
With --mdns the printer's mDNS advertisement is browsed instead.`,
	Example: `  # Scan the default subnet
  printlink scan

  # Remember the address in the config file
  printlink scan --save

  # Browse mDNS for 5 seconds
  printlink scan --mdns --timeout 5s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if scanMDNS {
			return runMDNSScan(cmd, cfg)
		}
		return runLANScan(cmd, cfg)
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanMDNS, "mdns", false, "Browse mDNS instead of scanning the subnet")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "Record the printer's address in the config file")
}

func runLANScan(cmd *cobra.Command, cfg *config.Config) error {
	cfg.Discovery.Enabled = true
	st, err := buildStack(cfg, stackOptions{Only: []string{config.TransportLAN}})
	if err != nil {
		return err
	}

	target := cfg.Discovery.CIDR
	if target == "" {
		target = fmt.Sprintf("%s%d-%d", cfg.Discovery.Prefix, cfg.Discovery.FirstHost, cfg.Discovery.LastHost)
	}
	fmt.Println(ui.NewHeader("Printer scan", "printlink scan",
		ui.Param{Key: "Range", Value: target},
		ui.Param{Key: "Candidates", Value: strconv.Itoa(len(st.probe.Candidates()))},
		ui.Param{Key: "Tie-break", Value: cfg.Discovery.TieBreak},
	).Render())
	fmt.Println()

	ctx := cmd.Context()
	started := time.Now()
	stop := st.start(ctx)
	defer stop()

	if _, err := st.waitReady(ctx, waitTimeout); err != nil {
		status := st.probe.Status()
		fmt.Println(ui.NewWarningResult("No printer answered").
			AddDetail("Waited", waitTimeout.String()).
			AddDetail("Campaigns", strconv.Itoa(status.Campaigns)).
			Render())
		return fmt.Errorf("scan failed: %w", err)
	}

	status := st.probe.Status()
	fmt.Println(ui.RenderSuccess("Printer found",
		ui.Param{Key: "Address", Value: status.Addr.String()},
		ui.Param{Key: "Elapsed", Value: time.Since(started).Round(time.Millisecond).String()},
		ui.Param{Key: "Campaigns", Value: strconv.Itoa(status.Campaigns)},
	))

	if scanSave {
		cfg.RememberPrinter(status.Addr.String(), config.TransportLAN, time.Now())
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Println(ui.MutedStyle.Render("  Saved to config."))
	}
	return nil
}

func runMDNSScan(cmd *cobra.Command, cfg *config.Config) error {
	scanner := discovery.NewScanner()
	scanner.Timeout = waitTimeout
	if cfg.MDNS.Service != "" {
		scanner.Service = cfg.MDNS.Service
	}
	if cfg.MDNS.Domain != "" {
		scanner.Domain = cfg.MDNS.Domain
	}
	if cfg.MDNS.NamePattern != "" {
		pattern, err := regexp.Compile(cfg.MDNS.NamePattern)
		if err != nil {
			return fmt.Errorf("invalid mdns.name_pattern: %w", err)
		}
		scanner.Pattern = pattern
	}

	fmt.Printf("Browsing %s.%s for %s...\n\n", scanner.Service, scanner.Domain, waitTimeout)

	devices, err := scanner.ScanForDevices(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println(ui.RenderFailure("No printer advertised", transport.ErrUnreachable,
			"Check that the printer advertises "+scanner.Service,
			"mDNS does not cross routers or most VPNs",
			"Try increasing --timeout",
		))
		return nil
	}

	if jsonOutput() {
		return printJSON(devices)
	}

	fmt.Printf("Found %d printer(s):\n\n", len(devices))
	for i, d := range devices {
		fmt.Printf("%d. %s\n", i+1, d.Instance)
		fmt.Printf("   Host:    %s\n", d.Hostname)
		fmt.Printf("   Address: %s\n", d.Host())
		if len(d.Metadata) > 0 {
			fmt.Printf("   TXT:     %v\n", d.Metadata)
		}
		fmt.Println()
	}

	if scanSave {
		cfg.RememberPrinter(devices[0].Host(), config.TransportMDNS, time.Now())
		return cfg.Save(configPath)
	}
	return nil
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Follow the printer live in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		st, err := buildStack(cfg, stackOptions{Device: deviceAddr})
		if err != nil {
			return err
		}

		stop := st.start(cmd.Context())
		defer stop()

		opts := monitor.Options{
			Printer: st.client,
			Links:   st.router,
			Refresh: cfg.Monitor.Refresh,
			Timeout: cfg.RequestTimeout,
		}
		if st.probe != nil {
			opts.Scanner = st.probe
		}
		return monitor.Run(cmd.Context(), opts)
	},
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Share this machine's route to the printer",
}

var relayListen string

var relayServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept relay clients and forward their requests to the printer",
	Long: `Run a websocket relay for printlink clients that cannot see the printer.

Requests arriving on the relay path are routed through this machine's own
LAN or mDNS transports. Point a client at it with relay.url in its config,
e.g. ws://workshop-pi:8765/relay.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		st, err := buildStack(cfg, stackOptions{Device: deviceAddr, NoRelay: true})
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		stop := st.start(ctx)
		defer stop()

		listen := relayListen
		if listen == "" {
			listen = cfg.Relay.Listen
		}

		srv := relay.NewServer(st.router, cfg.Relay.Path)
		fmt.Println(ui.NewHeader("Relay", "printlink relay serve",
			ui.Param{Key: "Listen", Value: listen},
			ui.Param{Key: "Path", Value: cfg.Relay.Path},
		).Render())

		return srv.ListenAndServe(ctx, listen)
	},
}

func init() {
	relayServeCmd.Flags().StringVar(&relayListen, "listen", "", "Listen address (default from config, "+relay.DefaultListen+")")
	relayCmd.AddCommand(relayServeCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Println(ui.RenderSuccess("Configuration written", ui.Param{Key: "Path", Value: path}))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(cfg)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		path, _ := resolveConfigPath()
		fmt.Printf("# %s\n%s", path, data)
		return nil
	},
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
