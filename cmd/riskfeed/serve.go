package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/StrathCole/riskfeed/pkg/config"
	"github.com/StrathCole/riskfeed/pkg/feed"
	"github.com/StrathCole/riskfeed/pkg/logging"
	"github.com/StrathCole/riskfeed/pkg/metrics"
	"github.com/StrathCole/riskfeed/pkg/server/api"
	"github.com/StrathCole/riskfeed/pkg/version"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the optional WebSocket stream and the monitoring loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := initLogger(cfg, true)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, logger)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config, logger *logging.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting riskfeed", "version", version.Version)

	system, err := feed.New(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			logger.Info("Starting metrics server", "addr", cfg.Metrics.Addr, "path", cfg.Metrics.Path)
			if err := metrics.ServeHTTP(cfg.Metrics.Addr, cfg.Metrics.Path); err != nil {
				logger.Error("Metrics server error", "error", err)
			}
		}()
	}

	var wsServer *api.WebSocketServer
	if cfg.Server.WebSocket.Enabled {
		wsServer = api.NewWebSocketServer(cfg.Server.WebSocket.Addr, logger)
		system.OnPriceUpdate(wsServer.SendUpdate)
		go func() {
			if err := wsServer.Start(ctx); err != nil {
				logger.Error("WebSocket server error", "error", err)
			}
		}()
	}

	if cfg.Monitoring.Enabled {
		warnStaleMonitoring(cfg, logger)
		go monitor(ctx, system, cfg.Monitoring.Assets, cfg.MonitoringInterval(), logger)
	}

	server := api.NewServer(cfg.Server.HTTP.Addr, system, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if wsServer != nil {
		wsServer.Stop()
	}
	if err := server.Stop(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Failed to stop HTTP server", "error", err)
	}

	logger.Info("Shutdown complete")
	return nil
}

// warnStaleMonitoring reports whether the monitoring interval is shorter than
// the price cache TTL, logging a warning when it is. Refreshes inside the TTL
// are cache hits, so the WebSocket stream updates once per TTL at most.
func warnStaleMonitoring(cfg *config.Config, logger *logging.Logger) bool {
	if cfg.MonitoringInterval() >= cfg.CacheDuration() {
		return false
	}
	logger.Warn("Monitoring interval is shorter than the price cache TTL, refreshes within the TTL are served from cache",
		"interval", cfg.MonitoringInterval().String(),
		"cache_ttl", cfg.CacheDuration().String(),
	)
	return true
}

// monitor requests every asset once per interval. Assets whose cached price
// has expired are re-aggregated, which also feeds the WebSocket stream.
func monitor(ctx context.Context, system *feed.System, assets []string, interval time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh := func() {
		for _, asset := range assets {
			if _, err := system.GetAggregatedPrice(ctx, asset); err != nil {
				logger.Warn("Monitoring refresh failed", "asset", asset, "error", err)
			}
		}
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
