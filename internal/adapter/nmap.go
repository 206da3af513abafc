package adapter

import (
	"context"
	"fmt"
	"net/netip"
	"strconv"
	"sync"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/charmbracelet/log"

	"voicescout/internal/domain"
	"voicescout/internal/logging"
)

// NmapScanner probes hosts by driving an installed nmap binary with a TCP
// connect scan. It honours the HostScanner contract, including input order.
type NmapScanner struct {
	binaryPath  string
	timeout     time.Duration
	batchSize   int
	timing      nmap.Timing
	parallelism int
	publisher   EventPublisher
	logger      *log.Logger

	mu        sync.Mutex
	available *bool
}

// NewNmapScanner creates a new nmap-backed host scanner
func NewNmapScanner(logger *log.Logger, opts ...NmapOption) *NmapScanner {
	scanner := &NmapScanner{
		timeout:   5 * time.Minute,
		batchSize: 256,
		timing:    nmap.TimingAggressive,
		logger:    logging.Component(logger, "nmap"),
	}

	for _, opt := range opts {
		opt(scanner)
	}

	return scanner
}

// SetEventPublisher sets the event publisher for progress updates
func (n *NmapScanner) SetEventPublisher(pub EventPublisher) {
	n.publisher = pub
}

// publishProgress emits a discovery progress event
func (n *NmapScanner) publishProgress(eventType string, payload interface{}) {
	if n.publisher != nil {
		n.publisher.PublishDiscoveryEvent(eventType, payload)
	}
}

// Name returns the backend identifier
func (n *NmapScanner) Name() string {
	return "nmap"
}

// Available checks once whether the nmap binary can run
func (n *NmapScanner) Available(ctx context.Context) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.available != nil {
		return *n.available
	}

	opts := []nmap.Option{
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	}
	if n.binaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(n.binaryPath))
	}

	ok := false
	if scanner, err := nmap.NewScanner(ctx, opts...); err == nil {
		_, _, err = scanner.Run()
		ok = err == nil
	}
	n.available = &ok
	if !ok {
		n.logger.Debug("nmap binary not usable")
	}
	return ok
}

// Scan probes candidates in batches. A failed batch yields no live hosts;
// scan errors are transient and never surface to the caller.
func (n *NmapScanner) Scan(ctx context.Context, addrs []netip.Addr, cfg domain.ScanConfiguration) []domain.HostProbeResult {
	cfg = cfg.WithDefaults()
	candidates := Candidates(addrs)
	if len(candidates) == 0 {
		return nil
	}

	found := make(map[netip.Addr]domain.HostProbeResult)
	completed := 0
	for start := 0; start < len(candidates); start += n.batchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+n.batchSize, len(candidates))
		batch := candidates[start:end]

		run, err := n.runBatch(ctx, batch, cfg)
		if err != nil {
			n.logger.Debug("nmap batch failed", "hosts", len(batch), "err", err)
		} else {
			for _, r := range n.processResults(run, cfg.Ports) {
				found[r.Address] = r
			}
		}

		completed += len(batch)
		n.publishProgress(EventScanProgress, ScanProgress{
			Backend:   n.Name(),
			Completed: completed,
			Total:     len(candidates),
			Live:      len(found),
		})
	}

	results := make([]domain.HostProbeResult, 0, len(found))
	for _, a := range candidates {
		if r, ok := found[a]; ok {
			results = append(results, r)
		}
	}
	return results
}

// runBatch performs a single nmap invocation
func (n *NmapScanner) runBatch(ctx context.Context, batch []netip.Addr, cfg domain.ScanConfiguration) (*nmap.Run, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	targets := make([]string, len(batch))
	for i, a := range batch {
		targets[i] = a.String()
	}

	opts := []nmap.Option{
		nmap.WithTargets(targets...),
		nmap.WithPorts(portList(cfg.Ports)),
		nmap.WithConnectScan(),
		nmap.WithSkipHostDiscovery(),
		nmap.WithMaxRTTTimeout(cfg.ProbeTimeout),
		nmap.WithTimingTemplate(n.timing),
	}
	if n.parallelism > 0 {
		opts = append(opts, nmap.WithMaxParallelism(n.parallelism))
	} else {
		opts = append(opts, nmap.WithMaxParallelism(cfg.MaxConcurrentProbes))
	}
	if n.binaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(n.binaryPath))
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		n.logger.Debug("nmap warnings", "warnings", *warnings)
	}
	return result, nil
}

// processResults converts nmap hosts into probe results for the two target ports
func (n *NmapScanner) processResults(run *nmap.Run, ports domain.Ports) []domain.HostProbeResult {
	if run == nil {
		return nil
	}

	var results []domain.HostProbeResult
	for _, host := range run.Hosts {
		addr, ok := hostIPv4(host)
		if !ok {
			continue
		}

		result := domain.HostProbeResult{Address: addr}
		for _, port := range host.Ports {
			if port.State.State != "open" {
				continue
			}
			switch port.ID {
			case ports.Web:
				result.WebPortOpen = true
			case ports.Synth:
				result.SynthPortOpen = true
			}
		}

		if result.Live() {
			results = append(results, result)
		}
	}
	return results
}

// hostIPv4 returns the first IPv4 address nmap reported for a host
func hostIPv4(host nmap.Host) (netip.Addr, bool) {
	for _, a := range host.Addresses {
		if a.AddrType != "ipv4" {
			continue
		}
		addr, err := netip.ParseAddr(a.Addr)
		if err == nil && addr.Is4() {
			return addr, true
		}
	}
	return netip.Addr{}, false
}

func portList(ports domain.Ports) string {
	return strconv.Itoa(int(ports.Web)) + "," + strconv.Itoa(int(ports.Synth))
}
