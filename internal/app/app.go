package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/herald/internal/challenges"
	"github.com/MrSnakeDoc/herald/internal/comments"
	"github.com/MrSnakeDoc/herald/internal/config"
	"github.com/MrSnakeDoc/herald/internal/feedback"
	"github.com/MrSnakeDoc/herald/internal/httpserver"
	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
	"github.com/MrSnakeDoc/herald/internal/identity"
	"github.com/MrSnakeDoc/herald/internal/index"
	"github.com/MrSnakeDoc/herald/internal/logger"
	"github.com/MrSnakeDoc/herald/internal/metrics"
	"github.com/MrSnakeDoc/herald/internal/permission"
	"github.com/MrSnakeDoc/herald/internal/ratings"
	"github.com/MrSnakeDoc/herald/internal/redis"
	"github.com/MrSnakeDoc/herald/internal/scheduler"
	"github.com/MrSnakeDoc/herald/internal/sources/settings"
	redisstore "github.com/MrSnakeDoc/herald/internal/store/redis"
	"github.com/MrSnakeDoc/herald/internal/version"
	"github.com/MrSnakeDoc/herald/internal/votes"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	reloader    *scheduler.SettingsReloader
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Redis backs every write; fail fast if it never comes up.
	redisClient, err := redis.New(context.Background(), redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	containers := index.NewContainers()
	ident := identity.NewResolver(containers)
	gate := permission.NewGate(ident, loggerClient)
	props := redisstore.NewProperties(redisClient)

	reloadTrigger := make(chan struct{}, 1)
	reloader := scheduler.NewSettingsReloader(
		settings.NewLoader(cfg.SettingsFile),
		settings.Defaults{
			ChallengesContainer: cfg.ChallengesContainer,
			FeedbackContainer:   cfg.FeedbackContainer,
			Admins:              cfg.Admins,
		},
		redisstore.NewSettings(redisClient),
		containers,
		m,
		loggerClient,
		cfg.SettingsReloadInterval,
		reloadTrigger,
	)

	v := version.Get()
	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            v.Version,
		Commit:             v.Commit,
		BuildDate:          v.BuildDate,
		GoVersion:          v.GoVersion,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		RateLimitBurst:     cfg.RateLimitBurst,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RedisClient:        redisClient,
		Containers:         containers,
		Gatherer:           reg,
		Comments: comments.NewService(comments.Deps{
			Properties: props,
			Native:     redisstore.NewComments(redisClient),
			Identity:   ident,
			Logger:     loggerClient,
			Metrics:    m,
		}),
		Challenges: challenges.NewService(challenges.Deps{
			Properties: props,
			Identity:   ident,
			Containers: containers,
			Gate:       gate,
			Logger:     loggerClient,
			Metrics:    m,
		}),
		Feedback: feedback.NewService(feedback.Deps{
			Properties: props,
			Identity:   ident,
			Containers: containers,
			Gate:       gate,
			Logger:     loggerClient,
			Metrics:    m,
		}),
		Votes: votes.NewService(votes.Deps{
			Properties: props,
			Identity:   ident,
			Logger:     loggerClient,
			Metrics:    m,
		}),
		Ratings: ratings.NewService(ratings.Deps{
			Properties: props,
			Identity:   ident,
			Logger:     loggerClient,
			Metrics:    m,
		}),
		ReloadTrigger: reloadTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		reloader:    reloader,
	}
}

func (a *App) Run() error {
	v := version.Get()
	a.logger.Infof("🚀 Starting herald %s on %s", v.Version, a.cfg.ListenPort)
	a.logger.Infof("herald %s (commit=%s, built=%s, go=%s)", v.Version, v.Commit, v.BuildDate, v.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start settings reloader: %w", err)
	}
	a.logger.Info("settings reloader started",
		logger.String("file", a.cfg.SettingsFile),
		logger.Duration("interval", a.cfg.SettingsReloadInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.reloader.Stop()
		return err
	}

	a.reloader.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	} else {
		a.logger.Info("✅ Redis closed cleanly")
	}

	a.logger.Info("✅ herald stopped cleanly")
	return nil
}
