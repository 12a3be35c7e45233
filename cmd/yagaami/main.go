// Package main wires together the job scraping service binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	archivefs "github.com/im-caveman/yagaami/internal/archive/fs"
	"github.com/im-caveman/yagaami/internal/cache"
	"github.com/im-caveman/yagaami/internal/client"
	"github.com/im-caveman/yagaami/internal/clock"
	"github.com/im-caveman/yagaami/internal/config"
	"github.com/im-caveman/yagaami/internal/extract/indeed"
	"github.com/im-caveman/yagaami/internal/jobs"
	kvmemory "github.com/im-caveman/yagaami/internal/kv/memory"
	"github.com/im-caveman/yagaami/internal/logging"
	"github.com/im-caveman/yagaami/internal/metrics"
	"github.com/im-caveman/yagaami/internal/ops"
	pubsubpublisher "github.com/im-caveman/yagaami/internal/publisher/pubsub"
	"github.com/im-caveman/yagaami/internal/ratelimit"
	"github.com/im-caveman/yagaami/internal/render"
	"github.com/im-caveman/yagaami/internal/rotation"
	"github.com/im-caveman/yagaami/internal/salary"
	"github.com/im-caveman/yagaami/internal/scrape"
	storememory "github.com/im-caveman/yagaami/internal/store/memory"
	storepostgres "github.com/im-caveman/yagaami/internal/store/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	term := flag.String("query", "golang developer", "Search term")
	location := flag.String("location", "", "Search location")
	pages := flag.Int("pages", 0, "Pages to scrape (0 uses config default)")
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
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sysClock := clock.NewSystem()
	sleeper := clock.NewSleeper()
	kv := kvmemory.New(sysClock)
	defer kv.Close()

	limiter := ratelimit.New(kv, sysClock, sleeper, ratelimit.Config{
		Thresholds: cfg.RateLimit.Thresholds,
		DefaultMax: cfg.RateLimit.DefaultMax,
	}, logging.Component(logger, "ratelimit"))

	responses := cache.New(kv, cfg.Cache.TTLSeconds)
	proxies := rotation.NewProxyRing(cfg.Rotation.Proxies)
	identities := rotation.NewIdentityRing(cfg.Rotation.UserAgents)

	policy := client.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.HTTP.MaxAttempts
	policy.BaseDelay = cfg.BackoffBase()
	fetcher := client.New(client.Config{
		Timeout: cfg.HTTPTimeout(),
		Policy:  policy,
	}, responses, proxies, identities, sysClock, sleeper, logging.Component(logger, "client"))

	var renderer jobs.Renderer
	if cfg.Headless.Enabled {
		chrome, err := render.NewChromedp(render.Config{
			MaxParallel:    cfg.Headless.MaxParallel,
			DefaultTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Warn("headless renderer init failed", zap.Error(err))
		} else {
			defer chrome.Close()
			renderer = chrome
		}
	}

	var store jobs.RecordStore
	if cfg.DB.DSN != "" {
		pgStore, err := storepostgres.NewRecordStore(ctx, storepostgres.RecordStoreConfig{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
		})
		if err != nil {
			logger.Fatal("postgres init failed", zap.Error(err))
		}
		defer pgStore.Close()
		store = pgStore
	} else {
		logger.Warn("db.dsn not set, using in-memory record store")
		store = storememory.NewRecordStore()
	}

	var publisher jobs.Publisher
	if cfg.PubSub.Enabled {
		pub, err := pubsubpublisher.New(ctx, pubsubpublisher.Config{
			ProjectID: cfg.PubSub.ProjectID,
			Topic:     cfg.PubSub.TopicName,
		})
		if err != nil {
			logger.Fatal("pubsub init failed", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
	}

	var predictor jobs.Predictor
	if cfg.Salary.Enabled {
		predictorClient, err := salary.New(salary.Config{
			BaseURL: cfg.Salary.BaseURL,
			Timeout: time.Duration(cfg.Salary.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			logger.Fatal("salary predictor init failed", zap.Error(err))
		}
		predictor = predictorClient
	}

	var archive jobs.Archive
	if cfg.Archive.Enabled {
		fsArchive, err := archivefs.New(archivefs.Config{BaseDir: cfg.Archive.BaseDir})
		if err != nil {
			logger.Fatal("archive init failed", zap.Error(err))
		}
		archive = fsArchive
	}

	extractor := indeed.New(sysClock, logging.Component(logger, "indeed"))

	scraper, err := scrape.New(scrape.Config{
		Source:        cfg.Scrape.Source,
		DetailWorkers: cfg.Scrape.DetailWorkers,
		Topic:         cfg.PubSub.TopicName,
		RenderTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
	}, fetcher, renderer, extractor, limiter, store, publisher, predictor, archive, sysClock,
		logging.Component(logger, "scrape"))
	if err != nil {
		logger.Fatal("scraper init failed", zap.Error(err))
	}

	opsServer := ops.NewServer(ops.Config{Addr: cfg.Ops.Addr}, logging.Component(logger, "ops"))
	go func() {
		if err := opsServer.Start(); err != nil {
			logger.Error("ops server failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("ops server shutdown failed", zap.Error(err))
		}
	}()

	runPages := *pages
	if runPages <= 0 {
		runPages = cfg.Scrape.MaxPages
	}
	report, err := scraper.Run(ctx, scrape.Query{
		Term:     *term,
		Location: *location,
		Pages:    runPages,
	})
	if err != nil {
		logger.Error("scrape run failed", zap.Error(err))
		return
	}
	logger.Info("done",
		zap.String("run_id", report.RunID),
		zap.Int("listings", report.Listings),
		zap.Int("upserted", report.Upserted),
		zap.Int("skipped", report.Skipped))
}
