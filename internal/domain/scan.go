package domain

import "time"

const (
	// DefaultWebPort is the Gradio web UI port of the speech server
	DefaultWebPort uint16 = 7860
	// DefaultSynthPort is the synthesis API port of the speech server
	DefaultSynthPort uint16 = 9880
)

// Ports are the two fixed ports every candidate host is probed on
type Ports struct {
	Web   uint16 `json:"web" yaml:"web"`
	Synth uint16 `json:"synth" yaml:"synth"`
}

// DefaultPorts returns 7860/9880
func DefaultPorts() Ports {
	return Ports{Web: DefaultWebPort, Synth: DefaultSynthPort}
}

// ScanConfiguration tunes a discovery call. Zero fields fall back to defaults.
type ScanConfiguration struct {
	// ProbeTimeout bounds a single TCP connect
	ProbeTimeout time.Duration `json:"probe_timeout"`
	// ProbeGrace is added to ProbeTimeout for the per-host join deadline
	ProbeGrace time.Duration `json:"probe_grace"`
	// VerifyTimeout bounds each verification call
	VerifyTimeout time.Duration `json:"verify_timeout"`
	// MaxConcurrentProbes caps the host worker pool
	MaxConcurrentProbes int `json:"max_concurrent_probes"`
	// MaxConcurrentVerifications caps parallel protocol checks
	MaxConcurrentVerifications int `json:"max_concurrent_verifications"`
	// Ports are the web and synth ports
	Ports Ports `json:"ports"`
	// ProbeRate limits dial starts per second; 0 disables limiting
	ProbeRate float64 `json:"probe_rate,omitempty"`
	// IncludeLowPriority plans Low segments in fast mode instead of skipping them
	IncludeLowPriority bool `json:"include_low_priority,omitempty"`
	// FallbackToDefaults scans a small fixed set when no adapters are found
	FallbackToDefaults bool `json:"fallback_to_defaults,omitempty"`
}

// DefaultScanConfiguration returns the process-wide defaults
func DefaultScanConfiguration() ScanConfiguration {
	return ScanConfiguration{
		ProbeTimeout:               500 * time.Millisecond,
		ProbeGrace:                 100 * time.Millisecond,
		VerifyTimeout:              3 * time.Second,
		MaxConcurrentProbes:        100,
		MaxConcurrentVerifications: 10,
		Ports:                      DefaultPorts(),
	}
}

// WithDefaults returns a copy with zero values replaced by defaults
func (c ScanConfiguration) WithDefaults() ScanConfiguration {
	def := DefaultScanConfiguration()
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = def.ProbeTimeout
	}
	if c.ProbeGrace <= 0 {
		c.ProbeGrace = def.ProbeGrace
	}
	if c.VerifyTimeout <= 0 {
		c.VerifyTimeout = def.VerifyTimeout
	}
	if c.MaxConcurrentProbes <= 0 {
		c.MaxConcurrentProbes = def.MaxConcurrentProbes
	}
	if c.MaxConcurrentVerifications <= 0 {
		c.MaxConcurrentVerifications = def.MaxConcurrentVerifications
	}
	if c.Ports.Web == 0 {
		c.Ports.Web = def.Ports.Web
	}
	if c.Ports.Synth == 0 {
		c.Ports.Synth = def.Ports.Synth
	}
	if c.ProbeRate < 0 {
		c.ProbeRate = 0
	}
	return c
}

// HostDeadline is the per-host join deadline for the two sub-probes
func (c ScanConfiguration) HostDeadline() time.Duration {
	return c.ProbeTimeout + c.ProbeGrace
}
