package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/haven-social/warden/rulemod"
	"github.com/haven-social/warden/rulemod/analyzer"
	"github.com/haven-social/warden/rulemod/auditlog"
	"github.com/haven-social/warden/rulemod/cachestore"
	"github.com/haven-social/warden/rulemod/countstore"
	"github.com/haven-social/warden/rulemod/eventstore"
	"github.com/haven-social/warden/rulemod/flagstore"
	"github.com/haven-social/warden/rulemod/platform"
	"github.com/haven-social/warden/rulemod/rulestore"
	"github.com/haven-social/warden/rulemod/setstore"
)

type Server struct {
	logger    *slog.Logger
	engine    *rulemod.Engine
	rules     rulestore.Store
	ruleCache *rulestore.Cache
	events    eventstore.Store
	audit     auditlog.Store
	analyzer  analyzer.Client
	cache     cachestore.CacheStore
	echo      *echo.Echo
	rdb       *redis.Client
}

type Config struct {
	DatabaseURL        string
	MaxDBConnections   int
	RedisURL           string
	PlatformHost       string
	PlatformAdminToken string
	AnalyzerHost       string
	AnalyzerToken      string
	AnalyzerRateLimit  int
	SlackWebhookURL    string
	SetsFileJSON       string
	RuleReloadInterval time.Duration
	Logger             *slog.Logger
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	db, err := rulestore.OpenDatabase(config.DatabaseURL, config.MaxDBConnections)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	rules, err := rulestore.NewGormStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing rule store: %w", err)
	}
	audit, err := auditlog.NewGormStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing audit store: %w", err)
	}
	events, err := eventstore.NewGormStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing event store: %w", err)
	}

	sets := setstore.NewMemSetStore()
	if config.SetsFileJSON != "" {
		if err := sets.LoadFromFileJSON(config.SetsFileJSON); err != nil {
			return nil, fmt.Errorf("initializing in-process setstore: %v", err)
		}
		logger.Info("loaded set config from JSON", "path", config.SetsFileJSON)
	}

	var counters countstore.CountStore
	var cache cachestore.CacheStore
	var flags flagstore.FlagStore
	var rdb *redis.Client
	if config.RedisURL != "" {
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		// check redis connection
		_, err = rdb.Ping(context.TODO()).Result()
		if err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}

		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %v", err)
		}
		counters = cnt

		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, 30*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh

		flg, err := flagstore.NewRedisFlagStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis flagstore: %v", err)
		}
		flags = flg
	} else {
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5_000, 30*time.Minute)
		flags = flagstore.NewMemFlagStore()
	}

	var notifier rulemod.Notifier
	if config.SlackWebhookURL != "" {
		logger.Info("configuring slack notifier for notify actions")
		notifier = &rulemod.SlackNotifier{WebhookURL: config.SlackWebhookURL}
	} else {
		notifier = rulemod.NewMemNotifier()
	}

	var analyzerClient analyzer.Client
	if config.AnalyzerHost != "" {
		logger.Info("configuring content analyzer client", "host", config.AnalyzerHost)
		analyzerClient = analyzer.NewHTTPClient(config.AnalyzerHost, config.AnalyzerToken, config.AnalyzerRateLimit)
	}

	ruleCache := rulestore.NewCache(rules, logger, config.RuleReloadInterval)

	engine := rulemod.Engine{
		Logger:   logger,
		Rules:    ruleCache,
		Counters: counters,
		Sets:     sets,
		Flags:    flags,
		Platform: platform.NewHTTPClient(config.PlatformHost, config.PlatformAdminToken),
		Audit:    audit,
		Notifier: notifier,
	}

	s := &Server{
		logger:    logger,
		engine:    &engine,
		rules:     rules,
		ruleCache: ruleCache,
		events:    events,
		audit:     audit,
		analyzer:  analyzerClient,
		cache:     cache,
		rdb:       rdb,
	}
	s.echo = s.buildEcho()

	return s, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

// Runs the HTTP API, the rule snapshot refresh loop, and the batch cron until
// ctx is cancelled or a component fails.
func (s *Server) Run(ctx context.Context, bind string) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		err := s.ruleCache.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	cr := cron.New()
	if _, err := cr.AddFunc("@hourly", func() { s.runBatchPass(rulemod.FreqBatchHourly) }); err != nil {
		return err
	}
	if _, err := cr.AddFunc("@daily", func() { s.runBatchPass(rulemod.FreqBatchDaily) }); err != nil {
		return err
	}
	cr.Start()
	defer cr.Stop()

	eg.Go(func() error {
		if err := s.echo.Start(bind); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
