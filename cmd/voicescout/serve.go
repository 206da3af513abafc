package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voicescout/internal/config"
	"voicescout/internal/handler"
	"voicescout/internal/hub"
	"voicescout/internal/service"
	"voicescout/internal/watcher"
)

var (
	serveAddr     string
	serveInterval time.Duration

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the discovery API and live events over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default from config, 127.0.0.1:7870)")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 0, "run a fast discovery periodically (0 disables)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	// SSE hub fed from the event bus
	sseHub := hub.New(logger)
	go sseHub.Run()
	defer sseHub.Close()

	events := make(chan service.Event, 100)
	a.bus.Subscribe(events)
	defer a.bus.Unsubscribe(events)
	go func() {
		for {
			select {
			case ev := <-events:
				sseHub.Broadcast(ev)
			case <-ctx.Done():
				return
			}
		}
	}()

	if a.configPath != "" {
		w := watcher.New(a.configPath, func() { reloadConfig(a) }, logger)
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Config watcher stopped", "err", err)
			}
		}()
	}

	if serveInterval > 0 {
		go refreshLoop(ctx, a, serveInterval)
	}

	mux := http.NewServeMux()
	handler.NewDiscoveryHandler(a.catalog, logger).Register(mux)
	mux.Handle("GET /events", sseHub)

	server := &http.Server{
		Addr: addr,
		Handler: handler.Chain(mux,
			handler.Recover(logger),
			handler.CORS,
			handler.SecurityHeaders,
			handler.RequestLogger(logger),
		),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", addr, "backend", a.scanner.Name())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sseHub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown error", "err", err)
	}
	logger.Info("Server stopped")
	return nil
}

// reloadConfig re-reads the config file and updates seeds and scan settings.
// Backend, database and listen address changes need a restart.
func reloadConfig(a *app) {
	cfg, _, err := config.LoadFromPath(a.configPath)
	if err != nil {
		a.logger.Warn("Config reload failed, keeping previous settings", "err", err)
		return
	}
	a.catalog.Reconfigure(service.CatalogConfig{Seeds: cfg.Seeds, Config: cfg.ScanConfiguration()})
}

func refreshLoop(ctx context.Context, a *app, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			report, err := a.catalog.Refresh(ctx, true)
			if err != nil {
				a.logger.Debug("Periodic discovery skipped", "err", err)
				continue
			}
			a.logger.Debug("Periodic discovery finished", "servers", len(report.Servers))
		case <-ctx.Done():
			return
		}
	}
}
