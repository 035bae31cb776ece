package config

import (
	"errors"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервиса.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Europe/Kyiv"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token  string `envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID string `envconfig:"TELEGRAM_CHAT_ID"`
	} `envconfig:""`

	Source struct {
		URL           string        `envconfig:"SOURCE_URL" default:"https://www.roe.vsei.ua/disconnections"`
		Timeout       time.Duration `envconfig:"SOURCE_TIMEOUT" default:"30s"`
		PendingMarker string        `envconfig:"SOURCE_PENDING_MARKER" default:"Очікується"`
	} `envconfig:""`

	Schedule struct {
		Cron       string        `envconfig:"SCHEDULE_CRON" default:"*/30 * * * *"`
		RetryDelay time.Duration `envconfig:"RETRY_DELAY" default:"5m"`
	} `envconfig:""`

	RedisAddr  string        `envconfig:"REDIS_ADDR"`
	RunLockTTL time.Duration `envconfig:"RUN_LOCK_TTL" default:"2m"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Validate проверяет обязательные значения.
func (c AppConfig) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	if c.Telegram.ChatID == "" {
		return errors.New("TELEGRAM_CHAT_ID is not set")
	}
	if c.Source.URL == "" {
		return errors.New("SOURCE_URL is not set")
	}
	if c.Source.Timeout <= 0 {
		return errors.New("SOURCE_TIMEOUT must be positive")
	}
	if c.Schedule.RetryDelay <= 0 {
		return errors.New("RETRY_DELAY must be positive")
	}
	if c.Schedule.Cron == "" {
		return errors.New("SCHEDULE_CRON is not set")
	}
	return nil
}

// Location возвращает часовой пояс для отметки времени в сообщении.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return time.Local
	}
	return loc
}
