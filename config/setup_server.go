package config

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type AppConfig struct {
	ServerAddr     string          `yaml:"serverAddr"`
	Environment    string          `yaml:"environment"`
	DatabaseConfig DatabaseConfig  `yaml:"databaseConfig"`
	RedisConfig    RedisConfig     `yaml:"redisConfig"`
	JWT            JWTConfig       `yaml:"jwt"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Lockout        LockoutConfig   `yaml:"lockout"`
}

func LoadConfig(path string) (*AppConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults заполняет незаданные лимиты значениями по умолчанию.
// В production лимиты строже, чем в development
func (cfg *AppConfig) ApplyDefaults() {
	if cfg.Environment == "" {
		cfg.Environment = EnvDevelopment
	}

	prod := cfg.Environment == EnvProduction

	if cfg.RateLimit.Window == "" {
		cfg.RateLimit.Window = "15m"
	}
	if cfg.RateLimit.GeneralMax == 0 {
		if prod {
			cfg.RateLimit.GeneralMax = 100
		} else {
			cfg.RateLimit.GeneralMax = 1000
		}
	}
	if cfg.RateLimit.AuthMax == 0 {
		if prod {
			cfg.RateLimit.AuthMax = 5
		} else {
			cfg.RateLimit.AuthMax = 10
		}
	}
	if cfg.RateLimit.UserMax == 0 {
		cfg.RateLimit.UserMax = 1000
	}
	if cfg.RateLimit.NotificationMax == 0 {
		cfg.RateLimit.NotificationMax = 10
	}
	if cfg.RateLimit.NotificationWindow == "" {
		cfg.RateLimit.NotificationWindow = "1m"
	}

	if cfg.Lockout.Threshold == 0 {
		cfg.Lockout.Threshold = 5
	}
	if cfg.Lockout.Duration == "" {
		cfg.Lockout.Duration = "30m"
	}

	if cfg.JWT.AccessTokenTTL == "" {
		cfg.JWT.AccessTokenTTL = "24h"
	}
	if cfg.JWT.RefreshTokenTTL == "" {
		cfg.JWT.RefreshTokenTTL = "168h"
	}
}

// RateLimitWindow парсит окно лимитера, при ошибке возвращает 15 минут
func (cfg *AppConfig) RateLimitWindow() time.Duration {
	d, err := time.ParseDuration(cfg.RateLimit.Window)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// NotificationWindow парсит окно лимитера уведомлений, при ошибке возвращает минуту
func (cfg *AppConfig) NotificationWindow() time.Duration {
	d, err := time.ParseDuration(cfg.RateLimit.NotificationWindow)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:    serverAddress,
		Handler: router,
	}

	return server, router
}

func SetupDatabase(dsn string) (*Database, error) {
	return NewDatabaseConnection("postgres", dsn)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
