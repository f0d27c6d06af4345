package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammed-shakir/isuumo/internal/api"
	"github.com/mohammed-shakir/isuumo/internal/cache/estatecache"
	"github.com/mohammed-shakir/isuumo/internal/cache/redisstore"
	"github.com/mohammed-shakir/isuumo/internal/cache/respcache"
	"github.com/mohammed-shakir/isuumo/internal/catalog"
	"github.com/mohammed-shakir/isuumo/internal/core/config"
	"github.com/mohammed-shakir/isuumo/internal/core/health"
	"github.com/mohammed-shakir/isuumo/internal/core/observability"
	"github.com/mohammed-shakir/isuumo/internal/core/server"
	"github.com/mohammed-shakir/isuumo/internal/events"
	"github.com/mohammed-shakir/isuumo/internal/fixture"
	"github.com/mohammed-shakir/isuumo/internal/logger"
	"github.com/mohammed-shakir/isuumo/internal/metrics"
	"github.com/mohammed-shakir/isuumo/internal/store"
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
	addrFlag := flag.String("addr", "", "listen address")
	initFlag := flag.Bool("init", false, "load the fixture dataset before serving")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = strings.TrimSpace(*addrFlag)
	}

	instance := os.Getenv("INSTANCE_ID")
	if instance == "" {
		instance = uuid.NewString()
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		SampleN:   envInt("LOG_SAMPLE_N", 0),
		Component: "isuumo",
		Instance:  instance,
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting isuumo",
		"addr", cfg.Addr,
		"version", Version,
		"db_driver", cfg.Database.Driver,
		"fixture_source", cfg.Fixture.Source)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.ConditionDir)
	if err != nil {
		appLog.Error("failed to load search conditions", "err", err)
		return 1
	}

	st, err := store.Open(ctx, store.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		appLog.Error("failed to open store", "err", err)
		return 1
	}
	defer func() { _ = st.Close() }()

	src, err := fixture.New(ctx, cfg.Fixture)
	if err != nil {
		appLog.Error("failed to set up fixture source", "err", err)
		return 1
	}
	loader := &fixture.Loader{Source: src, Target: st, Log: appLog}

	ready := map[string]health.Pinger{"db": st}

	var rc *respcache.Cache
	if cfg.Cache.RedisAddr != "" {
		redis, err := redisstore.New(ctx, cfg.Cache.RedisAddr,
			redisstore.WithPoolSize(cfg.Cache.RedisPoolSize),
			redisstore.WithDialTimeout(cfg.Cache.RedisDialTimeout),
			redisstore.WithReadTimeout(cfg.Cache.RedisReadTimeout),
		)
		if err != nil {
			// the API works without the response cache
			appLog.Warn("redis unavailable, response cache disabled", "addr", cfg.Cache.RedisAddr, "err", err)
		} else {
			defer func() { _ = redis.Close() }()
			rc = respcache.New(redis, cfg.Cache.TTL, cfg.Cache.OpTimeout, appLog)
			ready["redis"] = redis
		}
	}

	estates := estatecache.New(cfg.Cache.EstateCacheSize)

	var pub *events.Publisher
	if cfg.Events.Enabled {
		pub, err = events.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic, instance, 0, appLog)
		if err != nil {
			appLog.Error("failed to create event publisher", "err", err)
			return 1
		}
		defer func() { _ = pub.Close() }()

		consumer := events.NewConsumer(events.ConsumerConfig{
			Brokers:  cfg.Events.Brokers,
			Topic:    cfg.Events.Topic,
			GroupID:  cfg.Events.GroupID + "-" + instance,
			Instance: instance,
		}, estates, appLog)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("event consumer stopped", "err", err)
			}
		}()
	}

	if *initFlag {
		counts, err := loader.Reload(ctx)
		if err != nil {
			appLog.Error("initial load failed", "err", err)
			return 1
		}
		appLog.Info("initial load done", "chairs", counts.Chairs, "estates", counts.Estates)
	}

	p := metrics.Init(metrics.Config{
		Enabled: os.Getenv("METRICS_ENABLED") == "true",
		Addr:    os.Getenv("METRICS_ADDR"),
		Path:    os.Getenv("METRICS_PATH"),
		Build: metrics.BuildInfo{
			Version:   os.Getenv("BUILD_VERSION"),
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})
	p.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "estate_cache_entries",
		Help: "Estates held in the local detail cache.",
	}, func() float64 { return float64(estates.Len()) }))
	if os.Getenv("METRICS_ENABLED") == "true" {
		serveMetrics(ctx, appLog, p)
	}

	a := api.New(api.Deps{
		Store:   st,
		Catalog: cat,
		Fixture: loader,
		Cache:   rc,
		Estates: estates,
		Events:  pub,
		Log:     appLog,
	})
	handler := server.NewRouter(cfg, appLog, a, server.Options{Ready: ready, Metrics: p.Handler()})

	if err := server.Run(ctx, cfg, appLog, handler); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
