package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Providers   ProvidersConfig `mapstructure:"providers"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Session     SessionConfig   `mapstructure:"session"`
	Advisor     AdvisorConfig   `mapstructure:"advisor"`
	Security    SecurityConfig  `mapstructure:"security"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ProviderConfig is the per-provider connection block.
type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key" json:"-" yaml:"-"`
	Timeout int    `mapstructure:"timeout"`
}

type ProvidersConfig struct {
	MarketData ProviderConfig `mapstructure:"market_data"`
	Funds      ProviderConfig `mapstructure:"funds"`
	News       ProviderConfig `mapstructure:"news"`
	Econ       ProviderConfig `mapstructure:"econ"`
	Filings    ProviderConfig `mapstructure:"filings"`
}

type CacheConfig struct {
	QuoteTTL    string `mapstructure:"quote_ttl"`
	HistoryTTL  string `mapstructure:"history_ttl"`
	NewsTTL     string `mapstructure:"news_ttl"`
	FilingsTTL  string `mapstructure:"filings_ttl"`
	ValidityTTL string `mapstructure:"validity_ttl"`
}

type SessionConfig struct {
	IdleTTL       string `mapstructure:"idle_ttl"`
	SweepInterval string `mapstructure:"sweep_interval"`
}

type AdvisorConfig struct {
	Model  string `mapstructure:"model"`
	APIKey string `mapstructure:"api_key" json:"-" yaml:"-"`
}

type SecurityConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	JWTExpiry  string `mapstructure:"jwt_expiry"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("security.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}
	if err := viper.BindEnv("advisor.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY environment variable: %w", err)
	}
	if err := viper.BindEnv("providers.news.api_key", "NEWS_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind NEWS_API_KEY environment variable: %w", err)
	}
	if err := viper.BindEnv("providers.econ.api_key", "FRED_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind FRED_API_KEY environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "finsight")
	viper.SetDefault("database.dbname", "finsight")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("providers.market_data.timeout", 30)
	viper.SetDefault("providers.funds.base_url", "https://api.mfapi.in")
	viper.SetDefault("providers.funds.timeout", 15)
	viper.SetDefault("providers.news.base_url", "https://newsapi.org")
	viper.SetDefault("providers.news.timeout", 15)
	viper.SetDefault("providers.econ.timeout", 15)
	viper.SetDefault("providers.filings.base_url", "https://data.sec.gov")
	viper.SetDefault("providers.filings.timeout", 20)

	viper.SetDefault("cache.quote_ttl", "5m")
	viper.SetDefault("cache.history_ttl", "15m")
	viper.SetDefault("cache.news_ttl", "10m")
	viper.SetDefault("cache.filings_ttl", "1h")
	viper.SetDefault("cache.validity_ttl", "24h")

	viper.SetDefault("session.idle_ttl", "30m")
	viper.SetDefault("session.sweep_interval", "5m")

	viper.SetDefault("advisor.model", "gemini-1.5-flash")

	viper.SetDefault("security.jwt_expiry", "24h")
	viper.SetDefault("security.bcrypt_cost", 12)
}

// Validate checks fields that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	if c.Environment == "production" && c.Security.JWTSecret == "" {
		return errors.New("security.jwt_secret is required in production")
	}
	for name, ttl := range map[string]string{
		"cache.quote_ttl":    c.Cache.QuoteTTL,
		"cache.history_ttl":  c.Cache.HistoryTTL,
		"cache.news_ttl":     c.Cache.NewsTTL,
		"cache.filings_ttl":  c.Cache.FilingsTTL,
		"cache.validity_ttl": c.Cache.ValidityTTL,
		"session.idle_ttl":   c.Session.IdleTTL,
		"security.jwt_expiry": c.Security.JWTExpiry,
	} {
		if _, err := time.ParseDuration(ttl); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Duration parses a config duration string, falling back when empty or
// malformed. Validate catches malformed values at startup; the fallback
// keeps call sites total.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// DSN builds the Postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Addr returns the host:port address for Redis.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
