package service

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"voicescout/internal/domain"
	"voicescout/internal/logging"
	"voicescout/internal/repository"
)

// ErrInvalidAddress is returned for addresses that are not IPv4 literals
var ErrInvalidAddress = errors.New("invalid IPv4 address")

// ErrDiscoveryRunning is returned by Refresh while another refresh is in flight
var ErrDiscoveryRunning = errors.New("discovery already running")

// ServerCatalog feeds configured and remembered servers into discovery and
// records what each call finds
type ServerCatalog struct {
	discovery *Discovery
	store     repository.Store
	mu        sync.RWMutex
	seeds     []string
	config    domain.ScanConfiguration
	eventBus  *EventBus
	logger    *log.Logger

	// running keeps refreshes single-flight across all callers
	running atomic.Bool
}

// CatalogConfig holds the catalog defaults
type CatalogConfig struct {
	Seeds  []string
	Config domain.ScanConfiguration
}

// NewServerCatalog creates a catalog. A nil store disables history.
func NewServerCatalog(discovery *Discovery, store repository.Store, eventBus *EventBus, cfg CatalogConfig, logger *log.Logger) *ServerCatalog {
	return &ServerCatalog{
		discovery: discovery,
		store:     store,
		seeds:     cfg.Seeds,
		config:    cfg.Config.WithDefaults(),
		eventBus:  eventBus,
		logger:    logging.Component(logger, "catalog"),
	}
}

// Config returns the scan configuration used by Refresh
func (c *ServerCatalog) Config() domain.ScanConfiguration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Reconfigure replaces the seeds and scan configuration for later calls
func (c *ServerCatalog) Reconfigure(cfg CatalogConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seeds = cfg.Seeds
	c.config = cfg.Config.WithDefaults()
	c.logger.Info("Catalog reconfigured", "seeds", len(cfg.Seeds))
}

// Discovery returns the underlying orchestrator
func (c *ServerCatalog) Discovery() *Discovery {
	return c.discovery
}

// Seeds returns configured seeds followed by remembered addresses
func (c *ServerCatalog) Seeds(ctx context.Context) []string {
	c.mu.RLock()
	seeds := append([]string(nil), c.seeds...)
	c.mu.RUnlock()
	if c.store == nil {
		return seeds
	}

	known, err := c.store.KnownAddresses(ctx)
	if err != nil {
		c.logger.Warn("Could not read known servers", "err", err)
		return seeds
	}
	return append(seeds, known...)
}

// Running reports whether a refresh is in flight
func (c *ServerCatalog) Running() bool {
	return c.running.Load()
}

// Refresh runs discovery with the catalog seeds and records the result.
// Only one refresh runs at a time; a concurrent call gets ErrDiscoveryRunning.
// History failures are logged and never fail the refresh.
func (c *ServerCatalog) Refresh(ctx context.Context, fast bool) (*Report, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrDiscoveryRunning
	}
	defer c.running.Store(false)

	report := c.discovery.Run(ctx, Request{
		Seeds:   c.Seeds(ctx),
		Options: Options{Fast: fast, Config: c.Config()},
	})

	if c.store == nil {
		return report, nil
	}

	run := repository.RunRecord{
		ID:        report.RunID.String(),
		StartedAt: report.StartedAt,
		Duration:  report.Duration,
		Fast:      report.Fast,
		FastExit:  report.FastExit,
		Fallback:  report.Plan.Fallback,
		Segments:  len(report.Plan.Targets),
		Addresses: report.Scanned,
		LiveHosts: report.LiveHosts,
		Servers:   len(report.Servers),
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		c.logger.Warn("Could not record discovery run", "run", run.ID, "err", err)
	}
	if err := c.store.UpsertServers(ctx, run.ID, report.StartedAt.Add(report.Duration), report.Servers); err != nil {
		c.logger.Warn("Could not record servers", "run", run.ID, "err", err)
	}

	return report, nil
}

// Servers lists remembered servers
func (c *ServerCatalog) Servers(ctx context.Context) ([]repository.StoredServer, error) {
	if c.store == nil {
		return nil, nil
	}
	return c.store.ListServers(ctx)
}

// Runs lists recent discovery runs
func (c *ServerCatalog) Runs(ctx context.Context, limit int) ([]repository.RunRecord, error) {
	if c.store == nil {
		return nil, nil
	}
	return c.store.ListRuns(ctx, limit)
}

// Forget removes a remembered server
func (c *ServerCatalog) Forget(ctx context.Context, address string) error {
	addr, err := netip.ParseAddr(address)
	if err != nil || !addr.Is4() {
		return fmt.Errorf("%w %q", ErrInvalidAddress, address)
	}
	if c.store == nil {
		return repository.ErrNotFound
	}
	if err := c.store.ForgetServer(ctx, addr.String()); err != nil {
		return err
	}

	if c.eventBus != nil {
		c.eventBus.Publish(Event{
			Type:    EventServerForgotten,
			Payload: map[string]string{"address": addr.String()},
		})
	}
	return nil
}

// Verify probes and verifies a single address outside of a full discovery
func (c *ServerCatalog) Verify(ctx context.Context, address string) (domain.VerifiedServer, bool, error) {
	addr, err := netip.ParseAddr(address)
	if err != nil || !addr.Unmap().Is4() {
		return domain.VerifiedServer{}, false, fmt.Errorf("%w %q", ErrInvalidAddress, address)
	}

	cfg := c.Config()
	start := time.Now()
	live := c.discovery.scanner.Scan(ctx, []netip.Addr{addr.Unmap()}, cfg)
	servers := c.discovery.verifyAll(ctx, live, cfg)
	c.logger.Debug("Single host verified", "address", addr, "servers", len(servers), "took", time.Since(start))

	if len(servers) == 0 {
		return domain.VerifiedServer{}, false, nil
	}
	return servers[0], true, nil
}
