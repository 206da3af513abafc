package config

import (
	"fmt"
	"time"

	"voicescout/internal/logging"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Scan     ScanConfig     `yaml:"scan" envPrefix:"SCAN_"`
	Seeds    []string       `yaml:"seeds,omitempty" env:"SEEDS" envSeparator:","`
	Backend  Backend        `yaml:"backend" env:"BACKEND"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	Logging  logging.Config `yaml:"logging" envPrefix:"LOG_"`
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
}

// ScanConfig is the file form of domain.ScanConfiguration
type ScanConfig struct {
	Fast                       bool     `yaml:"fast" env:"FAST"`
	ProbeTimeout               Duration `yaml:"probe_timeout" env:"PROBE_TIMEOUT"`
	ProbeGrace                 Duration `yaml:"probe_grace" env:"PROBE_GRACE"`
	VerifyTimeout              Duration `yaml:"verify_timeout" env:"VERIFY_TIMEOUT"`
	MaxConcurrentProbes        int      `yaml:"max_concurrent_probes" env:"MAX_CONCURRENT_PROBES"`
	MaxConcurrentVerifications int      `yaml:"max_concurrent_verifications" env:"MAX_CONCURRENT_VERIFICATIONS"`
	WebPort                    uint16   `yaml:"web_port" env:"WEB_PORT"`
	SynthPort                  uint16   `yaml:"synth_port" env:"SYNTH_PORT"`
	ProbeRate                  float64  `yaml:"probe_rate,omitempty" env:"PROBE_RATE"` // dials per second, 0 = unlimited
	IncludeLowPriority         bool     `yaml:"include_low_priority,omitempty" env:"INCLUDE_LOW_PRIORITY"`
	FallbackToDefaults         bool     `yaml:"fallback_to_defaults,omitempty" env:"FALLBACK_TO_DEFAULTS"`
}

// DatabaseConfig holds database settings. An empty path disables history.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// Backend selects the host scanner implementation
type Backend string

const (
	BackendNative Backend = "native"
	BackendNmap   Backend = "nmap"
	BackendAuto   Backend = "auto" // nmap when the binary is installed, native otherwise
)

// ParseBackend validates a backend name
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case BackendNative, BackendNmap, BackendAuto:
		return b, nil
	case "":
		return BackendNative, nil
	default:
		return "", fmt.Errorf("unknown scanner backend %q", s)
	}
}

// Duration wraps time.Duration for YAML and environment unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
