package adapter

import (
	"context"
	"net/netip"
	"time"

	"voicescout/internal/domain"
)

// Discovery event types published on the event bus
const (
	EventDiscoveryStarted  = "discovery-started"
	EventDiscoveryPhase    = "discovery-phase"
	EventScanProgress      = "scan-progress"
	EventServerVerified    = "server-verified"
	EventDiscoveryComplete = "discovery-complete"
)

// EventPublisher allows adapters to publish progress events
type EventPublisher interface {
	PublishDiscoveryEvent(eventType string, payload interface{})
}

// ProgressAdapter is implemented by components that report progress
type ProgressAdapter interface {
	// SetEventPublisher sets the event publisher for progress updates
	SetEventPublisher(pub EventPublisher)
}

// Prober answers whether a single TCP port accepts connections.
// Any failure, including timeout, is reported as closed.
type Prober interface {
	IsOpen(ctx context.Context, addr netip.Addr, port uint16, timeout time.Duration) bool
}

// HostScanner probes the web and synth ports of many addresses and returns
// only hosts with at least one open port, in input order
type HostScanner interface {
	// Name returns the backend identifier
	Name() string

	// Scan probes every candidate address
	Scan(ctx context.Context, addrs []netip.Addr, cfg domain.ScanConfiguration) []domain.HostProbeResult
}

// Verifier confirms that a live host actually runs the speech service.
// cfg is the configuration the host was scanned with.
type Verifier interface {
	Verify(ctx context.Context, host domain.HostProbeResult, cfg domain.ScanConfiguration) (domain.VerifiedServer, bool)
}

// VoiceLister enumerates the voices a speech server's web UI offers
type VoiceLister interface {
	ListVoices(ctx context.Context, baseURL string) ([]string, error)
}

// ScanProgress is the payload of EventScanProgress
type ScanProgress struct {
	Backend   string `json:"backend"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Live      int    `json:"live"`
}
