package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Runner struct {
		PollInterval time.Duration `envconfig:"RUNNER_POLL_INTERVAL" default:"5s"`
		MaxJobs      int           `envconfig:"RUNNER_MAX_JOBS" default:"3"`
		ClaimLease   time.Duration `envconfig:"RUNNER_CLAIM_LEASE" default:"2m"`
	} `envconfig:""`

	Publish struct {
		// Mode выбирает издателей: mock — симуляция, http — реальные вызовы API.
		Mode         string        `envconfig:"PUBLISH_MODE" default:"mock"`
		Timeout      time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"10s"`
		SuccessRate  float64       `envconfig:"PUBLISH_SUCCESS_RATE" default:"0.85"`
		TwitterURL   string        `envconfig:"PUBLISH_TWITTER_URL" default:"https://jsonplaceholder.typicode.com/posts"`
		FacebookURL  string        `envconfig:"PUBLISH_FACEBOOK_URL" default:"https://jsonplaceholder.typicode.com/posts"`
		InstagramURL string        `envconfig:"PUBLISH_INSTAGRAM_URL" default:"https://jsonplaceholder.typicode.com/posts"`
	} `envconfig:""`

	Hashtags struct {
		CacheTTL time.Duration `envconfig:"HASHTAG_CACHE_TTL" default:"1h"`
	} `envconfig:""`

	OpenAI struct {
		APIKey  string        `envconfig:"OPENAI_API_KEY"`
		BaseURL string        `envconfig:"OPENAI_BASE_URL"`
		Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4.1-mini"`
		Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"15s"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
