package service

import (
	"context"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"voicescout/internal/adapter"
	"voicescout/internal/core/netinfo"
	"voicescout/internal/core/planner"
	"voicescout/internal/domain"
	"voicescout/internal/logging"
)

// LoopbackSeed is always checked so a server on this machine is found first
const LoopbackSeed = "127.0.0.1"

// FastExitThreshold is how many verified seeds end a fast-mode call early
const FastExitThreshold = 2

// Phase is a step of one discovery call
type Phase string

const (
	PhaseSeedCheck     Phase = "seed-check"
	PhaseFastExit      Phase = "fast-exit"
	PhasePlanScan      Phase = "plan-scan"
	PhaseScanning      Phase = "scanning"
	PhaseVerifying     Phase = "verifying"
	PhaseDeduplicating Phase = "deduplicating"
	PhaseDone          Phase = "done"
)

// PhaseRecord is how long a phase took
type PhaseRecord struct {
	Phase     Phase         `json:"phase" yaml:"phase"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Resolver turns seed host names into addresses; *net.Resolver implements it
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Deps are the collaborators of a Discovery
type Deps struct {
	Inspector netinfo.Inspector
	Scanner   adapter.HostScanner
	Verifier  adapter.Verifier
	Resolver  Resolver
	Publisher adapter.EventPublisher
	Logger    *log.Logger
}

// Options tune one discovery call
type Options struct {
	Fast   bool
	Config domain.ScanConfiguration
}

// Request is the input of Run
type Request struct {
	Seeds []string
	Options
}

// Report is everything one discovery call learned
type Report struct {
	RunID     uuid.UUID                `json:"run_id" yaml:"run_id"`
	Fast      bool                     `json:"fast" yaml:"fast"`
	FastExit  bool                     `json:"fast_exit" yaml:"fast_exit"`
	Seeds     []netip.Addr             `json:"seeds" yaml:"seeds"`
	Adapters  []domain.NetworkAdapter  `json:"adapters,omitempty" yaml:"adapters,omitempty"`
	Plan      planner.Plan             `json:"plan" yaml:"plan"`
	Scanned   int                      `json:"scanned" yaml:"scanned"`
	LiveHosts int                      `json:"live_hosts" yaml:"live_hosts"`
	Servers   []domain.VerifiedServer  `json:"servers" yaml:"servers"`
	Phases    []PhaseRecord            `json:"phases" yaml:"phases"`
	StartedAt time.Time                `json:"started_at" yaml:"started_at"`
	Duration  time.Duration            `json:"duration" yaml:"duration"`
}

// Discovery finds speech servers. It keeps no state between calls.
type Discovery struct {
	inspector netinfo.Inspector
	scanner   adapter.HostScanner
	verifier  adapter.Verifier
	resolver  Resolver
	publisher adapter.EventPublisher
	logger    *log.Logger
}

// NewDiscovery wires a discovery orchestrator. Inspector and Resolver default
// to the operating system.
func NewDiscovery(deps Deps) *Discovery {
	logger := logging.Component(deps.Logger, "discovery")
	if deps.Inspector == nil {
		deps.Inspector = netinfo.NewSystemInspector(deps.Logger)
	}
	if deps.Resolver == nil {
		deps.Resolver = net.DefaultResolver
	}
	if deps.Scanner == nil {
		deps.Scanner = adapter.NewNativeScanner(nil, deps.Logger)
	}
	return &Discovery{
		inspector: deps.Inspector,
		scanner:   deps.Scanner,
		verifier:  deps.Verifier,
		resolver:  deps.Resolver,
		publisher: deps.Publisher,
		logger:    logger,
	}
}

// Discover returns the verified servers reachable from this host
func (d *Discovery) Discover(ctx context.Context, seeds []string, opts Options) []domain.VerifiedServer {
	return d.Run(ctx, Request{Seeds: seeds, Options: opts}).Servers
}

// Run performs one discovery call:
// seed check, then either a fast exit or plan, scan and verify, then dedup.
func (d *Discovery) Run(ctx context.Context, req Request) *Report {
	cfg := req.Config.WithDefaults()
	report := &Report{
		RunID:     uuid.New(),
		Fast:      req.Fast,
		StartedAt: time.Now(),
	}
	logger := d.logger.With("run", report.RunID.String()[:8])

	logger.Info("Discovery started", "fast", req.Fast, "seeds", len(req.Seeds))
	d.publish(adapter.EventDiscoveryStarted, map[string]interface{}{
		"run_id": report.RunID,
		"fast":   req.Fast,
		"seeds":  len(req.Seeds),
	})

	// Seed check
	end := d.phase(report, logger, PhaseSeedCheck)
	callerSeeds := d.resolveSeeds(ctx, req.Seeds, cfg, logger)
	report.Seeds = Union(callerSeeds, []netip.Addr{netip.MustParseAddr(LoopbackSeed)})
	seedLive := d.scanner.Scan(ctx, report.Seeds, cfg)
	seedServers := d.verifyAll(ctx, seedLive, cfg)
	report.LiveHosts += len(seedLive)
	end()

	var scanServers []domain.VerifiedServer
	if req.Fast && fastExit(callerSeeds, seedServers) {
		report.FastExit = true
		d.phase(report, logger, PhaseFastExit)()
	} else {
		end = d.phase(report, logger, PhasePlanScan)
		report.Plan = d.plan(cfg, report, logger)
		end()

		end = d.phase(report, logger, PhaseScanning)
		addrs := Exclude(report.Plan.Addresses(), report.Seeds)
		report.Scanned = len(addrs)
		live := d.scanner.Scan(ctx, addrs, cfg)
		report.LiveHosts += len(live)
		end()

		end = d.phase(report, logger, PhaseVerifying)
		scanServers = d.verifyAll(ctx, live, cfg)
		end()
	}

	end = d.phase(report, logger, PhaseDeduplicating)
	report.Servers = domain.DedupServers(append(seedServers, scanServers...))
	end()

	d.phase(report, logger, PhaseDone)()
	report.Duration = time.Since(report.StartedAt)

	logger.Info("Discovery complete", "servers", len(report.Servers), "live", report.LiveHosts,
		"scanned", report.Scanned, "fast_exit", report.FastExit, "took", report.Duration.Round(time.Millisecond))
	d.publish(adapter.EventDiscoveryComplete, map[string]interface{}{
		"run_id":    report.RunID,
		"servers":   report.Servers,
		"fast_exit": report.FastExit,
		"duration":  report.Duration.String(),
	})

	return report
}

// Plan returns the scan plan a non-fast call would use right now
func (d *Discovery) Plan(cfg domain.ScanConfiguration) planner.Plan {
	var report Report
	return d.plan(cfg.WithDefaults(), &report, d.logger)
}

// Adapters returns the local adapters discovery would scan from
func (d *Discovery) Adapters() []domain.NetworkAdapter {
	return d.inspector.ListAdapters()
}

func (d *Discovery) plan(cfg domain.ScanConfiguration, report *Report, logger *log.Logger) planner.Plan {
	p := planner.New(cfg)

	report.Adapters = d.inspector.ListAdapters()
	segments := netinfo.Segments(report.Adapters)
	if len(segments) == 0 {
		if cfg.FallbackToDefaults {
			logger.Warn("No network adapters found, scanning default segments")
			return p.FallbackPlan()
		}
		logger.Warn("No network adapters found, only seeds were checked")
		return planner.Plan{}
	}

	plan := p.Plan(segments)
	for _, s := range plan.Skipped {
		logger.Debug("Segment skipped", "segment", s.Segment, "category", s.Classification.Category,
			"reason", s.Classification.Reason)
	}
	logger.Info("Scan planned", "targets", len(plan.Targets), "addresses", plan.Estimate.TotalAddresses,
		"estimate", plan.Estimate.Duration().Round(time.Millisecond))
	return plan
}

// verifyAll checks live hosts with bounded concurrency, preserving order
func (d *Discovery) verifyAll(ctx context.Context, hosts []domain.HostProbeResult, cfg domain.ScanConfiguration) []domain.VerifiedServer {
	if len(hosts) == 0 || d.verifier == nil {
		return nil
	}

	slots := make([]*domain.VerifiedServer, len(hosts))

	var g errgroup.Group
	g.SetLimit(min(cfg.MaxConcurrentVerifications, len(hosts)))
	for i, host := range hosts {
		g.Go(func() error {
			server, ok := d.verifier.Verify(ctx, host, cfg)
			if !ok || !server.Valid() {
				d.logger.Debug("Host not verified", "address", host.Address)
				return nil
			}
			slots[i] = &server
			d.publish(adapter.EventServerVerified, server)
			return nil
		})
	}
	_ = g.Wait() // verification never fails

	var servers []domain.VerifiedServer
	for _, s := range slots {
		if s != nil {
			servers = append(servers, *s)
		}
	}
	return servers
}

// resolveSeeds parses literal IPv4 seeds and resolves host names, keeping order
func (d *Discovery) resolveSeeds(ctx context.Context, seeds []string, cfg domain.ScanConfiguration, logger *log.Logger) []netip.Addr {
	var out []netip.Addr
	for _, raw := range seeds {
		seed := strings.TrimSpace(raw)
		if seed == "" {
			continue
		}

		if addr, err := netip.ParseAddr(seed); err == nil {
			addr = addr.Unmap()
			if !addr.Is4() {
				logger.Debug("Ignoring non-IPv4 seed", "seed", seed)
				continue
			}
			out = append(out, addr)
			continue
		}

		rctx, cancel := context.WithTimeout(ctx, cfg.VerifyTimeout)
		addrs, err := d.resolver.LookupNetIP(rctx, "ip4", seed)
		cancel()
		if err != nil {
			logger.Debug("Seed resolution failed", "seed", seed, "err", err)
			continue
		}
		for _, a := range addrs {
			if a = a.Unmap(); a.Is4() {
				out = append(out, a)
			}
		}
	}
	return Union(out)
}

// fastExit decides whether the seed results are good enough to skip scanning
func fastExit(callerSeeds []netip.Addr, verified []domain.VerifiedServer) bool {
	if len(verified) >= FastExitThreshold {
		return true
	}
	if len(callerSeeds) == 0 || len(verified) == 0 {
		return false
	}

	ok := make(map[netip.Addr]struct{}, len(verified))
	for _, s := range verified {
		ok[s.Address] = struct{}{}
	}
	for _, seed := range callerSeeds {
		if _, found := ok[seed]; !found {
			return false
		}
	}
	return true
}

// phase records a phase start, logs and publishes it, and returns the closer
func (d *Discovery) phase(report *Report, logger *log.Logger, p Phase) func() {
	idx := len(report.Phases)
	report.Phases = append(report.Phases, PhaseRecord{Phase: p, StartedAt: time.Now()})

	logger.Debug("Discovery phase", "phase", p)
	d.publish(adapter.EventDiscoveryPhase, map[string]interface{}{
		"run_id": report.RunID,
		"phase":  p,
	})

	return func() {
		report.Phases[idx].Duration = time.Since(report.Phases[idx].StartedAt)
	}
}

func (d *Discovery) publish(eventType string, payload interface{}) {
	if d.publisher != nil {
		d.publisher.PublishDiscoveryEvent(eventType, payload)
	}
}

// Union concatenates address lists, dropping duplicates and keeping first-seen order
func Union(lists ...[]netip.Addr) []netip.Addr {
	seen := make(map[netip.Addr]struct{})
	var out []netip.Addr
	for _, list := range lists {
		for _, a := range list {
			if _, dup := seen[a]; dup {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// Exclude returns addrs without any address in skip
func Exclude(addrs, skip []netip.Addr) []netip.Addr {
	if len(skip) == 0 {
		return addrs
	}
	drop := make(map[netip.Addr]struct{}, len(skip))
	for _, a := range skip {
		drop[a] = struct{}{}
	}
	out := make([]netip.Addr, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := drop[a]; !ok {
			out = append(out, a)
		}
	}
	return out
}
