package adapter

import (
	"context"
	"net/netip"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"voicescout/internal/domain"
	"voicescout/internal/logging"
)

// ProgressInterval is how many completed hosts pass between progress events
const ProgressInterval = 20

// NativeScanner probes hosts with its own bounded worker pool
type NativeScanner struct {
	prober    Prober
	publisher EventPublisher
	logger    *log.Logger
}

// NewNativeScanner creates a scanner over the given prober.
// A nil prober means plain TCP connects.
func NewNativeScanner(prober Prober, logger *log.Logger) *NativeScanner {
	if prober == nil {
		prober = NewTCPProber()
	}
	return &NativeScanner{
		prober: prober,
		logger: logging.Component(logger, "scanner"),
	}
}

// SetEventPublisher sets the event publisher for progress updates
func (s *NativeScanner) SetEventPublisher(pub EventPublisher) {
	s.publisher = pub
}

// publishProgress emits a discovery progress event
func (s *NativeScanner) publishProgress(eventType string, payload interface{}) {
	if s.publisher != nil {
		s.publisher.PublishDiscoveryEvent(eventType, payload)
	}
}

// Name returns the backend identifier
func (s *NativeScanner) Name() string {
	return "native"
}

// Scan probes both target ports on every candidate. Each worker owns one
// result slot, so the join needs no lock and preserves input order.
func (s *NativeScanner) Scan(ctx context.Context, addrs []netip.Addr, cfg domain.ScanConfiguration) []domain.HostProbeResult {
	cfg = cfg.WithDefaults()
	candidates := Candidates(addrs)
	if len(candidates) == 0 {
		return nil
	}

	workers := min(cfg.MaxConcurrentProbes, len(candidates))
	limiter := newLimiter(cfg.ProbeRate)

	s.logger.Debug("Starting host scan", "hosts", len(candidates), "workers", workers,
		"web_port", cfg.Ports.Web, "synth_port", cfg.Ports.Synth, "timeout", cfg.ProbeTimeout)

	slots := make([]domain.HostProbeResult, len(candidates))
	var completed, live atomic.Int64

	var g errgroup.Group
	g.SetLimit(workers)
	for i, addr := range candidates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if limiter != nil {
				// Two dials per host
				if err := limiter.WaitN(ctx, 2); err != nil {
					slots[i] = domain.HostProbeResult{Address: addr}
					completed.Add(1)
					return nil
				}
			}

			slots[i] = s.probeHost(ctx, addr, cfg)
			if slots[i].Live() {
				live.Add(1)
				s.logger.Debug("Host alive", "address", addr,
					"web", slots[i].WebPortOpen, "synth", slots[i].SynthPortOpen)
			}
			if n := completed.Add(1); n%ProgressInterval == 0 {
				s.publishProgress(EventScanProgress, ScanProgress{
					Backend:   s.Name(),
					Completed: int(n),
					Total:     len(candidates),
					Live:      int(live.Load()),
				})
			}
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	s.publishProgress(EventScanProgress, ScanProgress{
		Backend:   s.Name(),
		Completed: int(completed.Load()),
		Total:     len(candidates),
		Live:      int(live.Load()),
	})

	results := make([]domain.HostProbeResult, 0, live.Load())
	for _, r := range slots {
		if r.Live() {
			results = append(results, r)
		}
	}

	s.logger.Debug("Host scan complete", "hosts", len(candidates), "live", len(results))
	return results
}

// probeHost runs the web and synth sub-probes concurrently under one host deadline
func (s *NativeScanner) probeHost(ctx context.Context, addr netip.Addr, cfg domain.ScanConfiguration) domain.HostProbeResult {
	hctx, cancel := context.WithTimeout(ctx, cfg.HostDeadline())
	defer cancel()

	result := domain.HostProbeResult{Address: addr}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		result.WebPortOpen = s.prober.IsOpen(hctx, addr, cfg.Ports.Web, cfg.ProbeTimeout)
	}()
	go func() {
		defer wg.Done()
		result.SynthPortOpen = s.prober.IsOpen(hctx, addr, cfg.Ports.Synth, cfg.ProbeTimeout)
	}()
	wg.Wait()

	return result
}

// Candidates drops non-IPv4, network (.0) and broadcast (.255) addresses and
// duplicates, keeping first-seen order
func Candidates(addrs []netip.Addr) []netip.Addr {
	seen := make(map[netip.Addr]struct{}, len(addrs))
	out := make([]netip.Addr, 0, len(addrs))
	for _, a := range addrs {
		a = a.Unmap()
		if !a.Is4() {
			continue
		}
		if last := a.As4()[3]; last == 0 || last == 255 {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// newLimiter returns nil when perSecond disables limiting
func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	burst := max(2, int(perSecond))
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
