package main

import (
	"context"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"smm-planner/internal/adapters/engagement"
	"smm-planner/internal/adapters/publisher"
	"smm-planner/internal/adapters/repo"
	"smm-planner/internal/adapters/timer"
	"smm-planner/internal/domain"
	"smm-planner/internal/infra/config"
	"smm-planner/internal/infra/db"
	applog "smm-planner/internal/infra/log"
	"smm-planner/internal/infra/metrics"
	"smm-planner/internal/usecase/publish"
	runnerusecase "smm-planner/internal/usecase/runner"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("runner: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	timerStore := timer.NewPostgres(pool, cfg.Runner.ClaimLease)

	registry := buildRegistry(cfg)
	engagementSource := engagement.NewSimulated(0)
	coordinator := publish.NewService(
		repoAdapter,
		repoAdapter,
		registry,
		engagementSource,
		logger.With().Str("component", "publish").Logger(),
	)

	jobRunner := runnerusecase.New(
		timerStore,
		repoAdapter,
		coordinator,
		cfg.Runner.PollInterval,
		cfg.Runner.MaxJobs,
		logger.With().Str("component", "runner").Logger(),
	)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	jobRunner.Start(ctx)
	<-ctx.Done()
	logger.Info().Msg("runner: остановка")
	jobRunner.Stop()
}

// buildRegistry собирает закрытый реестр издателей по конфигурации.
func buildRegistry(cfg config.AppConfig) *publisher.Registry {
	endpoints := map[domain.Platform]string{
		domain.PlatformTwitter:   cfg.Publish.TwitterURL,
		domain.PlatformFacebook:  cfg.Publish.FacebookURL,
		domain.PlatformInstagram: cfg.Publish.InstagramURL,
	}

	registry := publisher.NewRegistry()
	for _, platform := range domain.KnownPlatforms() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		if cfg.Publish.Mode == "http" {
			registry.Register(platform, publisher.NewHTTP(platform, endpoints[platform], cfg.Publish.Timeout, cfg.Publish.SuccessRate, rng))
			continue
		}
		registry.Register(platform, publisher.NewMock(platform, cfg.Publish.Timeout, cfg.Publish.SuccessRate, 500*time.Millisecond, 2*time.Second, rng))
	}
	return registry
}
