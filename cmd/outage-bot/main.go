package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"roe-outage-bot/internal/adapters/source"
	"roe-outage-bot/internal/adapters/telegram"
	"roe-outage-bot/internal/domain"
	"roe-outage-bot/internal/infra/cache"
	"roe-outage-bot/internal/infra/config"
	apphttp "roe-outage-bot/internal/infra/http"
	applog "roe-outage-bot/internal/infra/log"
	"roe-outage-bot/internal/infra/metrics"
	"roe-outage-bot/internal/infra/scheduler"
	"roe-outage-bot/internal/usecase/notify"
	"roe-outage-bot/internal/usecase/pipeline"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("некорректная конфигурация")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	logger.Info().Str("bot", botAPI.Self.UserName).Msg("бот авторизован")

	transport := telegram.NewTransport(botAPI, cfg.Telegram.ChatID)
	extractor := source.NewClient(
		cfg.Source.URL,
		cfg.Source.Timeout,
		source.Options{PendingMarker: cfg.Source.PendingMarker},
		applog.Component(logger, "source"),
	)
	machine := notify.NewMachine(transport, applog.Component(logger, "notify"))
	retry := pipeline.NewRetryPolicy(cfg.Schedule.RetryDelay, 1)

	var lock domain.RunLock
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		lock = cache.NewRedis(client)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("распределённая блокировка прогона включена")
	}

	controller := pipeline.NewController(ctx, extractor, machine, retry, lock, pipeline.Options{
		LockTTL:  cfg.RunLockTTL,
		Location: loc,
	}, applog.Component(logger, "pipeline"))

	srv := apphttp.NewServer(fmt.Sprintf(":%d", cfg.Port), applog.Component(logger, "http"), controller)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()

	sched, err := scheduler.New(cfg.Schedule.Cron, loc, func(ctx context.Context) {
		controller.RunOnce(ctx)
	}, applog.Component(logger, "scheduler"))
	if err != nil {
		logger.Fatal().Err(err).Msg("некорректное расписание")
	}
	if err := sched.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("не удалось запустить планировщик")
	}

	<-ctx.Done()
	logger.Info().Msg("остановка")

	sched.Stop()
	controller.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP сервер не остановлен корректно")
	}
}
