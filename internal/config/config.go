package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App       App       `yaml:"app"`
	HTTP      HTTP      `yaml:"http"`
	Log       Log       `yaml:"log"`
	Postgres  Postgres  `yaml:"postgres"`
	Redis     Redis     `yaml:"redis"`
	RateLimit RateLimit `yaml:"rate_limit"`
	Rates     Rates     `yaml:"rates"`
	Tracking  Tracking  `yaml:"tracking"`
	Carriers  []Carrier `yaml:"carriers"`
}

type App struct {
	Name string `yaml:"name" env:"APP_NAME" env-default:"freightportal-api"`
	Env  string `yaml:"env" env:"APP_ENV" env-default:"dev"`
}

type HTTP struct {
	Port string `yaml:"port" env:"PORT" env-default:"8080"`
}

type Log struct {
	Mode string `yaml:"mode" env:"LOG_MODE" env-default:"dev"`
}

type Postgres struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type RateLimit struct {
	PerMinute int `yaml:"per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"120"`
	Burst     int `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"20"`
}

type Rates struct {
	// TablePath points at a JSON carrier rate table. Empty means the
	// built-in table.
	TablePath string `yaml:"table_path" env:"RATE_TABLE_PATH"`
}

type Tracking struct {
	AdapterTimeoutMS int `yaml:"adapter_timeout_ms" env:"TRACKING_ADAPTER_TIMEOUT_MS" env-default:"5000"`
	BulkWorkers      int `yaml:"bulk_workers" env:"TRACKING_BULK_WORKERS" env-default:"8"`
}

// Carrier configures one upstream carrier integration. List order is the
// tracking discovery priority order.
type Carrier struct {
	Code          string `yaml:"code"`
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// Load reads config.yaml when present and lets environment variables
// override individual values.
func Load() (*Config, error) {
	cfg := &Config{}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		// fall back to env-only configuration
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	} else {
		_ = cleanenv.ReadEnv(cfg)
	}

	return cfg, nil
}
