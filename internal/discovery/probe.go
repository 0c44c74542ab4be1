package discovery

import (
	"context"
	"fmt"
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/muurk/printlink/internal/logging"
	"github.com/muurk/printlink/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// State is the lifecycle state of a Probe.
type State int

const (
	// StateIdle means no address is locked and no campaign is running.
	StateIdle State = iota
	// StateScanning means a campaign is in flight.
	StateScanning
	// StateLocked means a printer address is known.
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateLocked:
		return "locked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// pendingProbe is one in-flight probe of a campaign. The probing goroutine
// sets err and completedAt, then closes done.
type pendingProbe struct {
	addr      netip.Addr
	startedAt time.Time

	done        chan struct{}
	err         error
	completedAt time.Time
}

func (pp *pendingProbe) completed() bool {
	select {
	case <-pp.done:
		return true
	default:
		return false
	}
}

// Status is a snapshot of a Probe for display.
type Status struct {
	State        State
	Addr         netip.Addr
	Pending      int
	Campaigns    int
	LastCampaign time.Time
	LockedAt     time.Time
	Failures     int
}

// Probe is the LAN transport. It scans candidate addresses with concurrent
// probes, locks onto the one that answers and forwards requests to it.
type Probe struct {
	cfg        Config
	candidates []netip.Addr
	prober     Prober
	sender     *transport.Sender
	limiter    *rate.Limiter
	now        func() time.Time

	mu           sync.Mutex
	state        State
	locked       netip.Addr
	lockedAt     time.Time
	pending      []*pendingProbe
	cancel       context.CancelFunc
	failures     int
	campaigns    int
	lastCampaign time.Time
}

// NewProbe creates a probe. prober checks candidates; sender carries routed
// requests once an address is locked.
func NewProbe(cfg Config, prober Prober, sender *transport.Sender) (*Probe, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	candidates, err := Candidates(cfg)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidate addresses to scan")
	}

	p := &Probe{
		cfg:        cfg,
		candidates: candidates,
		prober:     prober,
		sender:     sender,
		now:        time.Now,
	}
	if cfg.RateLimit > 0 {
		burst := len(candidates)
		if cfg.RateLimit < float64(burst) {
			burst = max(int(cfg.RateLimit), 1)
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return p, nil
}

// Name implements transport.Transport.
func (p *Probe) Name() string {
	return "lan"
}

// Reachable implements transport.Transport. Only a locked probe is reachable.
func (p *Probe) Reachable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateLocked
}

// Candidates returns the addresses each campaign probes.
func (p *Probe) Candidates() []netip.Addr {
	return slices.Clone(p.candidates)
}

// Status returns a snapshot of the probe.
func (p *Probe) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		State:        p.state,
		Addr:         p.locked,
		Pending:      len(p.pending),
		Campaigns:    p.campaigns,
		LastCampaign: p.lastCampaign,
		LockedAt:     p.lockedAt,
		Failures:     p.failures,
	}
}

// Pin locks addr without scanning.
func (p *Probe) Pin(addr netip.Addr) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopCampaignLocked()
	p.lockLocked(addr, "pinned")
}

// ScanIfAppropriate starts a campaign unless the probe is locked or a
// campaign is already in flight. It reports whether a campaign started.
func (p *Probe) ScanIfAppropriate(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateLocked || len(p.pending) > 0 {
		return false
	}

	campaignCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = StateScanning
	p.campaigns++
	p.lastCampaign = p.now()

	// Highest address first so the highest-address policy is a plain scan
	p.pending = make([]*pendingProbe, 0, len(p.candidates))
	for _, addr := range p.candidates {
		p.pending = append(p.pending, &pendingProbe{
			addr:      addr,
			startedAt: p.lastCampaign,
			done:      make(chan struct{}),
		})
	}
	slices.SortFunc(p.pending, func(a, b *pendingProbe) int {
		return b.addr.Compare(a.addr)
	})

	for _, pp := range p.pending {
		go p.runProbe(campaignCtx, pp)
	}

	logging.LogCampaign("started",
		zap.Int("campaign", p.campaigns),
		zap.Int("candidates", len(p.pending)),
		zap.Duration("probe_timeout", p.cfg.ProbeTimeout),
	)
	return true
}

func (p *Probe) runProbe(ctx context.Context, pp *pendingProbe) {
	err := p.probeOne(ctx, pp.addr)
	pp.err = err
	pp.completedAt = p.now()
	close(pp.done)
}

func (p *Probe) probeOne(ctx context.Context, addr netip.Addr) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()
	return p.prober.Probe(probeCtx, addr)
}

// Poll runs one resolution pass over the pending probes. Completed failures
// are dropped; a completed success locks its address and cancels the rest
// of the campaign. When every probe has failed the probe returns to idle.
func (p *Probe) Poll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateScanning {
		return
	}

	var winner *pendingProbe
	remaining := make([]*pendingProbe, 0, len(p.pending))

	for _, pp := range p.pending {
		if !pp.completed() {
			remaining = append(remaining, pp)
			continue
		}

		logging.LogProbeResult(pp.addr.String(), pp.err, pp.completedAt.Sub(pp.startedAt))
		if pp.err != nil {
			continue
		}

		switch p.cfg.TieBreak {
		case TieBreakHighestAddress:
			if winner == nil {
				winner = pp
			}
		default:
			// Strict comparison keeps the higher address on equal times
			if winner == nil || pp.completedAt.Before(winner.completedAt) {
				winner = pp
			}
		}
	}

	if winner != nil {
		p.stopCampaignLocked()
		p.lockLocked(winner.addr, "locked")
		return
	}

	p.pending = remaining
	if len(p.pending) == 0 {
		p.stopCampaignLocked()
		logging.LogCampaign("exhausted", zap.Int("campaign", p.campaigns))
	}
}

// Invalidate forgets the locked address, or abandons a running campaign,
// so that the next tick scans again.
func (p *Probe) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidateLocked("manual")
}

func (p *Probe) invalidateLocked(reason string) {
	prev := p.locked
	p.stopCampaignLocked()
	p.locked = netip.Addr{}
	p.lockedAt = time.Time{}
	p.failures = 0

	fields := []zap.Field{zap.String("reason", reason)}
	if prev.IsValid() {
		fields = append(fields, zap.String("addr", prev.String()))
	}
	logging.LogCampaign("invalidated", fields...)
}

// stopCampaignLocked cancels outstanding probes and returns to idle.
func (p *Probe) stopCampaignLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.pending = nil
	p.state = StateIdle
}

func (p *Probe) lockLocked(addr netip.Addr, event string) {
	p.state = StateLocked
	p.locked = addr
	p.lockedAt = p.now()
	p.failures = 0
	logging.LogCampaign(event,
		zap.String("addr", addr.String()),
		zap.Int("campaign", p.campaigns),
	)
}

// Send implements transport.Transport by forwarding req to the locked address.
func (p *Probe) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	p.mu.Lock()
	if p.state != StateLocked {
		p.mu.Unlock()
		return nil, transport.ErrUnreachable
	}
	addr := p.locked
	p.mu.Unlock()

	resp, err := p.sender.Send(ctx, hostPort(addr, p.cfg.Port), req)
	p.recordResult(addr, err)
	if err != nil {
		return nil, err
	}
	resp.Transport = p.Name()
	return resp, nil
}

func (p *Probe) recordResult(addr netip.Addr, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// The lock may have moved while the request was in flight
	if p.state != StateLocked || p.locked != addr {
		return
	}

	if err == nil || !transport.CountsAsLinkFailure(err) {
		p.failures = 0
		return
	}

	p.failures++
	if p.cfg.FailureThreshold > 0 && p.failures >= p.cfg.FailureThreshold {
		p.invalidateLocked(fmt.Sprintf("%d consecutive link failures", p.failures))
	}
}

// Run drives campaigns and polling until ctx is done. The first campaign
// starts immediately.
func (p *Probe) Run(ctx context.Context) {
	scan := time.NewTicker(p.cfg.ScanInterval)
	defer scan.Stop()
	poll := time.NewTicker(p.cfg.PollInterval)
	defer poll.Stop()

	p.ScanIfAppropriate(ctx)

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			if p.state == StateScanning {
				p.stopCampaignLocked()
			}
			p.mu.Unlock()
			return
		case <-scan.C:
			p.ScanIfAppropriate(ctx)
		case <-poll.C:
			p.Poll()
		}
	}
}
