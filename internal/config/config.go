// Package config provides configuration management for voicescout.
//
// Values are layered: defaults, then the config file, then VOICESCOUT_*
// environment variables. Command-line flags are applied by the caller.
//
// Config file locations (priority order):
//  1. $VOICESCOUT_CONFIG
//  2. ./voicescout.yaml
//  3. $XDG_CONFIG_HOME/voicescout/config.yaml
//  4. ~/.config/voicescout/config.yaml
//  5. /etc/voicescout/config.yaml
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"voicescout/internal/domain"
	"voicescout/internal/logging"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "VOICESCOUT_"

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides are applied in both cases.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// Parse decodes YAML config data and fills in defaults
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays VOICESCOUT_* environment variables onto the config
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	c.applyDefaults()
	return c.Validate()
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	scan := domain.DefaultScanConfiguration()
	return &Config{
		Version: 1,
		Scan: ScanConfig{
			ProbeTimeout:               Duration(scan.ProbeTimeout),
			ProbeGrace:                 Duration(scan.ProbeGrace),
			VerifyTimeout:              Duration(scan.VerifyTimeout),
			MaxConcurrentProbes:        scan.MaxConcurrentProbes,
			MaxConcurrentVerifications: scan.MaxConcurrentVerifications,
			WebPort:                    scan.Ports.Web,
			SynthPort:                  scan.Ports.Synth,
		},
		Backend:  BackendNative,
		Database: DatabaseConfig{Path: DefaultDatabasePath()},
		Logging:  logging.DefaultConfig(),
		Server:   ServerConfig{Addr: "127.0.0.1:7870"},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Version == 0 {
		c.Version = def.Version
	}
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}

	// Zero scan values are filled by the domain defaults
	c.Scan.fromDomain(c.ScanConfiguration())
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	for _, s := range c.Seeds {
		if s == "" {
			return fmt.Errorf("seeds: empty entry")
		}
	}
	return nil
}

// ScanConfiguration converts the scan section into the engine's configuration
func (c *Config) ScanConfiguration() domain.ScanConfiguration {
	return domain.ScanConfiguration{
		ProbeTimeout:               c.Scan.ProbeTimeout.Duration(),
		ProbeGrace:                 c.Scan.ProbeGrace.Duration(),
		VerifyTimeout:              c.Scan.VerifyTimeout.Duration(),
		MaxConcurrentProbes:        c.Scan.MaxConcurrentProbes,
		MaxConcurrentVerifications: c.Scan.MaxConcurrentVerifications,
		Ports:                      domain.Ports{Web: c.Scan.WebPort, Synth: c.Scan.SynthPort},
		ProbeRate:                  c.Scan.ProbeRate,
		IncludeLowPriority:         c.Scan.IncludeLowPriority,
		FallbackToDefaults:         c.Scan.FallbackToDefaults,
	}.WithDefaults()
}

func (s *ScanConfig) fromDomain(d domain.ScanConfiguration) {
	s.ProbeTimeout = Duration(d.ProbeTimeout)
	s.ProbeGrace = Duration(d.ProbeGrace)
	s.VerifyTimeout = Duration(d.VerifyTimeout)
	s.MaxConcurrentProbes = d.MaxConcurrentProbes
	s.MaxConcurrentVerifications = d.MaxConcurrentVerifications
	s.WebPort = d.Ports.Web
	s.SynthPort = d.Ports.Synth
	s.ProbeRate = d.ProbeRate
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	scan := c.ScanConfiguration()
	summary := fmt.Sprintf("Backend: %s, Ports: %d/%d\n", c.Backend, scan.Ports.Web, scan.Ports.Synth)
	summary += fmt.Sprintf("Probe: %s (+%s grace), Verify: %s, Workers: %d/%d\n",
		scan.ProbeTimeout, scan.ProbeGrace, scan.VerifyTimeout,
		scan.MaxConcurrentProbes, scan.MaxConcurrentVerifications)
	summary += fmt.Sprintf("Seeds: %d, Database: %s", len(c.Seeds), c.Database.Path)
	return summary
}
