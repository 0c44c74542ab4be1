package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/printlink/internal/discovery"
	"github.com/muurk/printlink/internal/logging"
	"github.com/muurk/printlink/internal/printer"
	"github.com/muurk/printlink/internal/transport"
	"github.com/muurk/printlink/internal/ui"
	"go.uber.org/zap"
)

// DefaultRefresh is how often the monitor polls the printer.
const DefaultRefresh = 2 * time.Second

// Printer is the subset of printer.Client the monitor uses.
type Printer interface {
	PrintStatus(ctx context.Context) (printer.PrintStatus, bool)
	PrinterState(ctx context.Context) (printer.PrinterState, bool)
	PauseOrResume(ctx context.Context) error
}

// Links reports which transport currently carries requests.
type Links interface {
	Active() (transport.Transport, bool)
}

// Scanner is the LAN probe as seen by the monitor.
type Scanner interface {
	Status() discovery.Status
	Invalidate()
}

// Options configures a Model.
type Options struct {
	Printer Printer
	Links   Links
	// Scanner is optional; without it the rescan key is a no-op.
	Scanner Scanner
	Refresh time.Duration
	// Timeout bounds each refresh round trip. Defaults to Refresh.
	Timeout time.Duration
}

type tickMsg time.Time

type snapshotMsg struct {
	status   printer.PrintStatus
	statusOK bool
	state    printer.PrinterState
	stateOK  bool
	via      string
	probe    *discovery.Status
	at       time.Time
}

type actionMsg struct {
	action string
	err    error
}

// Model is the bubbletea model of the live printer dashboard.
type Model struct {
	opts Options

	snapshot   snapshotMsg
	haveData   bool
	lastAction string
	lastErr    error
	refreshing bool

	Width   int
	Height  int
	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// New creates a monitor model.
func New(opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	if opts.Timeout <= 0 {
		opts.Timeout = opts.Refresh
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.WarningColor)

	return Model{
		opts:    opts,
		Width:   ui.GetTerminalWidth(),
		spinner: s,
		help:    help.New(),
		keys:    defaultKeys(),
	}
}

// Init starts the spinner, the first refresh and the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh fetches one snapshot off the UI goroutine.
func (m Model) refresh() tea.Cmd {
	opts := m.opts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
		defer cancel()

		snap := snapshotMsg{at: time.Now()}
		if opts.Links != nil {
			if t, ok := opts.Links.Active(); ok {
				snap.via = t.Name()
			}
		}
		if opts.Scanner != nil {
			st := opts.Scanner.Status()
			snap.probe = &st
		}
		if snap.via != "" {
			snap.status, snap.statusOK = opts.Printer.PrintStatus(ctx)
			snap.state, snap.stateOK = opts.Printer.PrinterState(ctx)
		}
		return snap
	}
}

func (m Model) pause() tea.Cmd {
	p := m.opts.Printer
	timeout := m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return actionMsg{action: "pause/resume", err: p.PauseOrResume(ctx)}
	}
}

// Update handles key presses, refresh ticks and fetched snapshots.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			return m, m.pause()
		case key.Matches(msg, m.keys.Rescan):
			if m.opts.Scanner != nil {
				logging.Info("Rescan requested from monitor")
				m.opts.Scanner.Invalidate()
				m.lastAction = "rescan started"
				m.lastErr = nil
			}
			return m, m.refresh()
		}
		return m, nil

	case tickMsg:
		if m.refreshing {
			return m, m.tick()
		}
		m.refreshing = true
		return m, tea.Batch(m.refresh(), m.tick())

	case snapshotMsg:
		m.snapshot = msg
		m.haveData = true
		m.refreshing = false
		return m, nil

	case actionMsg:
		m.lastAction = msg.action
		m.lastErr = msg.err
		if msg.err != nil {
			logging.Warn("Monitor action failed", zap.String("action", msg.action), zap.Error(msg.err))
			m.lastAction = msg.action + " failed"
		}
		return m, m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(ui.NewHeader("printlink monitor", "printlink monitor").SetWidth(m.Width).Render())
	b.WriteString("\n\n")
	b.WriteString(m.linkLine())
	b.WriteString("\n\n")

	if m.haveData && m.snapshot.via != "" {
		b.WriteString(m.printSection())
		b.WriteString("\n")
		b.WriteString(m.temperatureSection())
	}

	if m.lastAction != "" {
		b.WriteString("\n")
		if m.lastErr != nil {
			b.WriteString(ui.ErrorMessageStyle.Render(fmt.Sprintf("  %s %s: %s", ui.FailureMarker, m.lastAction, transport.ShortMessage(m.lastErr))))
		} else {
			b.WriteString(ui.MutedStyle.Render(fmt.Sprintf("  %s %s", ui.SuccessMarker, m.lastAction)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) linkLine() string {
	if !m.haveData {
		return "  " + m.spinner.View() + " Connecting..."
	}

	snap := m.snapshot
	if snap.via != "" {
		label := "Connected via " + snap.via
		if snap.probe != nil && snap.via == "lan" && snap.probe.Addr.IsValid() {
			label += " (" + snap.probe.Addr.String() + ")"
		}
		return "  " + ui.StateStyle(true, false).Render(ui.SuccessMarker+" "+label)
	}

	if snap.probe != nil && snap.probe.State == discovery.StateScanning {
		return fmt.Sprintf("  %s %s", m.spinner.View(),
			ui.StateStyle(false, true).Render(fmt.Sprintf("Scanning (%d probes pending)", snap.probe.Pending)))
	}
	return "  " + ui.StateStyle(false, false).Render(ui.FailureMarker+" Printer unreachable")
}

func (m Model) printSection() string {
	snap := m.snapshot
	if !snap.statusOK {
		return ui.MutedStyle.Render("  Print status unavailable") + "\n"
	}

	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(printer.FormatPrintStatus(snap.status), "\n"), "\n") {
		b.WriteString("  " + line + "\n")
	}
	if snap.status.IsPrinting {
		b.WriteString("  " + ui.PrintProgress(snap.status.Progress(), m.Width-4) + "\n")
	}
	return b.String()
}

func (m Model) temperatureSection() string {
	if !m.snapshot.stateOK {
		return ui.MutedStyle.Render("  Temperatures unavailable") + "\n"
	}
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(printer.FormatPrinterState(m.snapshot.state), "\n"), "\n") {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}

// Run shows the monitor until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
