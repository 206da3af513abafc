package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"voicescout/internal/adapter"
	"voicescout/internal/config"
	"voicescout/internal/gradio"
	"voicescout/internal/logging"
	"voicescout/internal/repository"
	"voicescout/internal/repository/sqlite"
	"voicescout/internal/service"
)

// app holds everything a command needs, built from config and flags
type app struct {
	cfg        *config.Config
	configPath string
	logger     *log.Logger
	bus        *service.EventBus
	scanner    adapter.HostScanner
	catalog    *service.ServerCatalog

	closers []io.Closer
}

// loadConfig reads the config file and overlays command-line flags
func loadConfig() (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if configFile != "" {
		cfg, path, err = config.LoadFromPath(configFile)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	if viper.IsSet("log.level") {
		cfg.Logging.Level = viper.GetString("log.level")
	}
	if viper.IsSet("log.format") {
		cfg.Logging.Format = viper.GetString("log.format")
	}
	if viper.IsSet("log.file") {
		cfg.Logging.File = viper.GetString("log.file")
	}
	if viper.IsSet("db") {
		cfg.Database.Path = viper.GetString("db")
		if strings.EqualFold(cfg.Database.Path, "none") {
			cfg.Database.Path = ""
		}
	}
	if viper.IsSet("backend") {
		cfg.Backend = config.Backend(viper.GetString("backend"))
	}

	return cfg, path, cfg.Validate()
}

// newApp wires the discovery stack. Close must be called when done.
func newApp(ctx context.Context) (*app, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		bus:        service.NewEventBus(),
		closers:    []io.Closer{logCloser},
	}
	if path != "" {
		logger.Debug("Using configuration file", "path", path)
	}

	a.scanner, err = a.newScanner(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	httpClient := &http.Client{}
	voices := gradio.New(httpClient, logger)
	verifier := adapter.NewServiceVerifier(voices, httpClient, logger)

	discovery := service.NewDiscovery(service.Deps{
		Scanner:   a.scanner,
		Verifier:  verifier,
		Publisher: a.bus,
		Logger:    logger,
	})

	var store repository.Store
	if cfg.Database.Path != "" {
		if err := config.EnsureConfigDir(cfg.Database.Path); err != nil {
			a.Close()
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		repo, err := sqlite.New(cfg.Database.Path)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, repo)
		store = repo
		logger.Debug("History database opened", "path", cfg.Database.Path)
	}

	a.catalog = service.NewServerCatalog(discovery, store, a.bus, a.catalogConfig(), logger)
	return a, nil
}

func (a *app) catalogConfig() service.CatalogConfig {
	return service.CatalogConfig{Seeds: a.cfg.Seeds, Config: a.cfg.ScanConfiguration()}
}

// newScanner picks the host scanner for the configured backend
func (a *app) newScanner(ctx context.Context) (adapter.HostScanner, error) {
	backend, err := config.ParseBackend(string(a.cfg.Backend))
	if err != nil {
		return nil, err
	}

	native := adapter.NewNativeScanner(nil, a.logger)
	native.SetEventPublisher(a.bus)

	if backend == config.BackendNative {
		return native, nil
	}

	nm := adapter.NewNmapScanner(a.logger)
	nm.SetEventPublisher(a.bus)
	if nm.Available(ctx) {
		return nm, nil
	}
	if backend == config.BackendNmap {
		return nil, fmt.Errorf("nmap backend selected but the nmap binary is not available")
	}
	a.logger.Info("nmap not found, using native scanner")
	return native, nil
}

// Close releases the database and log file, newest first
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("Close failed", "err", err)
		}
	}
	a.closers = nil
}
