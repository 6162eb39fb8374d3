package config

import "time"

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type JWTConfig struct {
	AccessSecret    string `yaml:"access_secret"`
	RefreshSecret   string `yaml:"refresh_secret"`
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
}

// RateLimitConfig : лимиты по категориям запросов.
// Нулевые значения заполняются дефолтами в зависимости от окружения (см. ApplyDefaults)
type RateLimitConfig struct {
	Window             string `yaml:"window"`
	GeneralMax         int    `yaml:"general_max"`
	AuthMax            int    `yaml:"auth_max"`
	UserMax            int    `yaml:"user_max"`
	NotificationMax    int    `yaml:"notification_max"`
	NotificationWindow string `yaml:"notification_window"`
}

// LockoutConfig : порог и длительность блокировки аккаунта после неудачных попыток входа
type LockoutConfig struct {
	Threshold int    `yaml:"threshold"`
	Duration  string `yaml:"duration"`
}

// LockoutDuration парсит длительность блокировки, при ошибке возвращает 30 минут
func (c *LockoutConfig) LockoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Duration)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}
