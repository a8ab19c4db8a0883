// Package main wires together the vessel tracking service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fleetops/vesselwatch/internal/api"
	"github.com/fleetops/vesselwatch/internal/cache"
	"github.com/fleetops/vesselwatch/internal/clock"
	"github.com/fleetops/vesselwatch/internal/config"
	"github.com/fleetops/vesselwatch/internal/extract"
	"github.com/fleetops/vesselwatch/internal/fetcher/headless"
	"github.com/fleetops/vesselwatch/internal/logging"
	"github.com/fleetops/vesselwatch/internal/registry"
	"github.com/fleetops/vesselwatch/internal/resolve"
	"github.com/fleetops/vesselwatch/internal/track"
	"github.com/fleetops/vesselwatch/internal/vessel"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.New()
	geo := extract.Geofence{
		LatMin: cfg.Geofence.LatMin,
		LatMax: cfg.Geofence.LatMax,
		LonMin: cfg.Geofence.LonMin,
		LonMax: cfg.Geofence.LonMax,
	}

	var fetcher vessel.Fetcher
	if cfg.Fetcher.Enabled {
		headlessFetcher, err := headless.New(headless.Config{
			UserAgent:    cfg.Upstream.UserAgent,
			Attempts:     cfg.Fetcher.Attempts,
			RetryBackoff: cfg.Fetcher.RetryBackoff,
			NavTimeout:   cfg.Fetcher.NavTimeout,
			ReadyWait:    cfg.Fetcher.ReadyWait,
			SettleDelay:  cfg.Fetcher.SettleDelay,
			MaxParallel:  cfg.Fetcher.MaxParallel,
			DomainQPS:    cfg.Fetcher.DomainQPS,
		}, logger.Named("fetcher"))
		if err != nil {
			logger.Warn("headless fetcher init failed, using noop", zap.Error(err))
			fetcher = headless.NewNoop()
		} else {
			defer headlessFetcher.Close()
			fetcher = headlessFetcher
		}
	} else {
		logger.Info("headless fetching disabled, all resolutions will be synthetic")
		fetcher = headless.NewNoop()
	}

	extractor := extract.New(geo, cfg.Upstream.ImageHost, logger.Named("extract"))
	resolver := resolve.New(fetcher, extractor, clk, geo, logger.Named("resolve"))

	var durable cache.Store
	var durablePing api.Pinger
	if cfg.Redis.Addr != "" {
		redisStore, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, clk)
		if err != nil {
			logger.Warn("redis unavailable, durable tier degraded to memory", zap.Error(err))
			durable = cache.NewMemory()
		} else {
			durable = redisStore
			durablePing = redisStore
		}
	} else {
		durable = cache.NewMemory()
	}

	tiered := cache.NewTiered(durable, clk, cache.TTLConfig{
		Success:          cfg.Cache.SuccessTTL,
		Default:          cfg.Cache.DefaultTTL,
		Error:            cfg.Cache.ErrorTTL,
		CleanupThreshold: cfg.Cache.CleanupThreshold,
	}, logger.Named("cache"))

	tracker := track.New(tiered, resolver, resolver, track.Config{
		BatchSize:  cfg.Preload.BatchSize,
		BatchPause: cfg.Preload.BatchPause,
		Stagger:    cfg.Preload.Stagger,
	}, logger.Named("track"))

	fleet := registry.NewMemory(demoFleet(cfg.Upstream.Host)...)

	apiServer := api.NewServer(
		tracker,
		resolver,
		resolver,
		fleet,
		cfg.Upstream.Host,
		durablePing,
		logger.Named("api"),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}

// demoFleet seeds the registry until the fleet service is wired in.
func demoFleet(host string) []vessel.Vessel {
	base := "https://" + host + "/vessels/details/"
	return []vessel.Vessel{
		{ID: "v-001", Label: "hy.emerald@fleetops.example", Reference: base + "9676307"},
		{ID: "v-002", Label: "pacific.harmony@fleetops.example", Reference: base + "9434140"},
		{ID: "v-003", Label: "meridian.star@fleetops.example", Reference: base + "9525338"},
		{ID: "v-004", Label: "coastal.runner@fleetops.example"},
	}
}
