package monitor

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/printlink/internal/discovery"
	"github.com/muurk/printlink/internal/printer"
	"github.com/muurk/printlink/internal/transport"
)

type fakePrinter struct {
	status   printer.PrintStatus
	state    printer.PrinterState
	pauseErr error
	paused   int
}

func (f *fakePrinter) PrintStatus(context.Context) (printer.PrintStatus, bool) {
	return f.status, true
}

func (f *fakePrinter) PrinterState(context.Context) (printer.PrinterState, bool) {
	return f.state, true
}

func (f *fakePrinter) PauseOrResume(context.Context) error {
	f.paused++
	return f.pauseErr
}

type namedTransport string

func (n namedTransport) Name() string    { return string(n) }
func (n namedTransport) Reachable() bool { return true }
func (n namedTransport) Send(context.Context, *transport.Request) (*transport.Response, error) {
	return nil, transport.ErrUnreachable
}

type fakeLinks struct{ active string }

func (f fakeLinks) Active() (transport.Transport, bool) {
	if f.active == "" {
		return nil, false
	}
	return namedTransport(f.active), true
}

type fakeScanner struct {
	status      discovery.Status
	invalidated int
}

func (f *fakeScanner) Status() discovery.Status { return f.status }
func (f *fakeScanner) Invalidate()              { f.invalidated++ }

// drain runs a command and feeds its message back into the model.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func TestModel_ConnectedView(t *testing.T) {
	fp := &fakePrinter{
		status: printer.PrintStatus{
			IsPrinting:             true,
			FileNameBeingPrinted:   "benchy.gcode",
			PrintDurationInSeconds: 1000,
			TimePrintedInSeconds:   500,
		},
		state: printer.PrinterState{HotendCurrentTemperature: 483, HotendTargetTemperature: 483, BedCurrentTemperature: -1, BedTargetTemperature: -1},
	}
	scanner := &fakeScanner{status: discovery.Status{State: discovery.StateLocked, Addr: netip.MustParseAddr("192.168.1.17")}}

	m := New(Options{Printer: fp, Links: fakeLinks{active: "lan"}, Scanner: scanner, Refresh: time.Second})
	m.Width = 80
	m = drain(t, m, m.refresh())

	view := m.View()
	for _, part := range []string{"Connected via lan", "192.168.1.17", "benchy.gcode", "50%", "483°", "n/a"} {
		if !strings.Contains(view, part) {
			t.Errorf("view missing %q:\n%s", part, view)
		}
	}
}

func TestModel_ScanningView(t *testing.T) {
	scanner := &fakeScanner{status: discovery.Status{State: discovery.StateScanning, Pending: 12}}
	m := New(Options{Printer: &fakePrinter{}, Links: fakeLinks{}, Scanner: scanner})
	m = drain(t, m, m.refresh())

	view := m.View()
	if !strings.Contains(view, "Scanning (12 probes pending)") {
		t.Errorf("view missing scan progress:\n%s", view)
	}
	if strings.Contains(view, "Temperatures") {
		t.Error("printer sections should be hidden while unreachable")
	}
}

func TestModel_UnreachableView(t *testing.T) {
	m := New(Options{Printer: &fakePrinter{}, Links: fakeLinks{}})
	if !strings.Contains(m.View(), "Connecting") {
		t.Error("initial view should show connecting")
	}
	m = drain(t, m, m.refresh())
	if !strings.Contains(m.View(), "Printer unreachable") {
		t.Errorf("view = %s", m.View())
	}
}

func TestModel_Keys(t *testing.T) {
	fp := &fakePrinter{}
	scanner := &fakeScanner{}
	m := New(Options{Printer: fp, Links: fakeLinks{active: "relay"}, Scanner: scanner})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = drain(t, updated.(Model), cmd)
	if fp.paused != 1 {
		t.Errorf("PauseOrResume called %d times, want 1", fp.paused)
	}
	if !strings.Contains(m.View(), "pause/resume") {
		t.Error("view should report the pause action")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = updated.(Model)
	if scanner.invalidated != 1 {
		t.Errorf("Invalidate called %d times, want 1", scanner.invalidated)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModel_PauseFailure(t *testing.T) {
	fp := &fakePrinter{pauseErr: transport.NewHTTPError(409, "not printing")}
	m := New(Options{Printer: fp, Links: fakeLinks{active: "lan"}})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = drain(t, updated.(Model), cmd)

	view := m.View()
	if !strings.Contains(view, "pause/resume failed") {
		t.Errorf("view missing failure:\n%s", view)
	}
	if !errors.Is(m.lastErr, fp.pauseErr) {
		t.Errorf("lastErr = %v", m.lastErr)
	}
}

func TestModel_TickSkipsWhileRefreshing(t *testing.T) {
	m := New(Options{Printer: &fakePrinter{}, Links: fakeLinks{}})

	updated, _ := m.Update(tickMsg(time.Now()))
	m = updated.(Model)
	if !m.refreshing {
		t.Fatal("tick should start a refresh")
	}

	updated, _ = m.Update(snapshotMsg{at: time.Now()})
	if updated.(Model).refreshing {
		t.Error("snapshot should end the refresh")
	}
}
