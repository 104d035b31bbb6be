package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dealmapper/happyhour/internal/app/deals"
	"github.com/dealmapper/happyhour/internal/cache"
	"github.com/dealmapper/happyhour/internal/cache/querycache"
	"github.com/dealmapper/happyhour/internal/cache/redisstore"
	"github.com/dealmapper/happyhour/internal/core/config"
	"github.com/dealmapper/happyhour/internal/core/observability"
	"github.com/dealmapper/happyhour/internal/core/server"
	"github.com/dealmapper/happyhour/internal/geoindex"
	"github.com/dealmapper/happyhour/internal/invalidation/kafkaconsumer"
	"github.com/dealmapper/happyhour/internal/logger"
	"github.com/dealmapper/happyhour/internal/store"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		SampleN:   envInt("LOG_SAMPLE_N", 0),
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting deal server",
		"addr", cfg.Addr,
		"version", Version,
		"h3_res", cfg.H3Res,
		"cache", cfg.CacheEnabled,
		"invalidation", cfg.Invalidation.Enabled)

	loc, err := time.LoadLocation(cfg.TimeLocation)
	if err != nil {
		appLog.Error("invalid TIME_LOCATION", "value", cfg.TimeLocation, "err", err)
		return 1
	}
	now := func() time.Time { return time.Now().In(loc) }

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ms := store.NewMemStore()
	gx, err := geoindex.New(cfg.H3Res)
	if err != nil {
		appLog.Error("geo index setup failed", "err", err)
		return 1
	}

	if cfg.SeedPath != "" {
		ests, dls, err := store.LoadSeed(ctx, cfg.SeedPath, ms)
		if err != nil {
			appLog.Error("seed load failed", "path", cfg.SeedPath, "err", err)
			return 1
		}
		placed := 0
		all, err := ms.Establishments(ctx)
		if err != nil {
			appLog.Error("seed index failed", "err", err)
			return 1
		}
		for _, e := range all {
			if e.Coord == nil {
				continue
			}
			if err := gx.Add(e.ID, *e.Coord); err != nil {
				appLog.Warn("skipping unindexable establishment", "id", e.ID, "err", err)
				continue
			}
			placed++
		}
		appLog.Info("seed loaded", "establishments", ests, "deals", dls, "indexed", placed)
	}

	var qc cache.Interface = cache.Nop{}
	if cfg.CacheEnabled {
		cli, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = cli.Close() }()

		qc, err = querycache.New(cli, appLog, cfg.CacheTTL, cfg.CacheOpTimeout, cfg.LocalCacheSize)
		if err != nil {
			appLog.Error("query cache setup failed", "err", err)
			return 1
		}
		appLog.Info("query cache enabled", "redis", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	}

	if cfg.Invalidation.Enabled {
		ccfg := kafkaconsumer.NewConfig(cfg.Invalidation.Brokers, cfg.Invalidation.Topic, cfg.Invalidation.GroupID)
		consumer := kafkaconsumer.New(ccfg, appLog, qc, ms, gx, cfg.MaxRadiusKm)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("deal-change consumer failed", "err", err)
				stop()
			}
		}()
	}

	h := deals.New(appLog, ms, gx, qc)

	if err := server.Run(ctx, cfg, appLog, now, h, h); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
