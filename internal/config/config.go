package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds settings for both the pricing server and the checker
type Config struct {
	Port               string        `mapstructure:"port"`
	DBDriver           string        `mapstructure:"db_driver"`
	DBDSN              string        `mapstructure:"db_dsn"`
	EbayAppID          string        `mapstructure:"ebay_app_id"`
	EbayEndpoint       string        `mapstructure:"ebay_endpoint"`
	EbayDailyLimit     int           `mapstructure:"ebay_daily_limit"`
	EbayRPS            float64       `mapstructure:"ebay_rps"`
	CacheSize          int           `mapstructure:"cache_size"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	PricingURL         string        `mapstructure:"pricing_url"`
	LedgerFile         string        `mapstructure:"ledger_file"`
	LogFile            string        `mapstructure:"log_file"`
	DebugLogging       bool          `mapstructure:"debug_logging"`
	ShippingDefault    float64       `mapstructure:"shipping_default"`
	PageRenderer       string        `mapstructure:"page_renderer"`
}

const (
	DefaultPort           = "8080"
	DefaultDBDriver       = "sqlite"
	DefaultDBDSN          = "./card_flip_checker.db"
	DefaultEbayDailyLimit = 5000
	DefaultEbayRPS        = 1.0
	DefaultCacheSize      = 256
	DefaultCacheTTL       = 15 * time.Minute
	DefaultPricingURL     = "http://localhost:8080"
	DefaultLedgerFile     = "./data/ledger.json"
	DefaultLogFile        = "./logs/card-flip-checker.log"
	DefaultShipping       = 0.55
	DefaultPageRenderer   = "http"

	envPrefix = "CHECKER"
)

// Load reads configuration from an optional file, .env, and CHECKER_*
// environment variables, in increasing priority.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	defaults := map[string]interface{}{
		"port":                 DefaultPort,
		"db_driver":            DefaultDBDriver,
		"db_dsn":               DefaultDBDSN,
		"ebay_app_id":          "",
		"ebay_endpoint":        "",
		"ebay_daily_limit":     DefaultEbayDailyLimit,
		"ebay_rps":             DefaultEbayRPS,
		"cache_size":           DefaultCacheSize,
		"cache_ttl":            DefaultCacheTTL,
		"cors_allowed_origins": []string{"*"},
		"pricing_url":          DefaultPricingURL,
		"ledger_file":          DefaultLedgerFile,
		"log_file":             DefaultLogFile,
		"debug_logging":        false,
		"shipping_default":     DefaultShipping,
		"page_renderer":        DefaultPageRenderer,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Comma-separated origins from the environment arrive as one element
	if len(cfg.CORSAllowedOrigins) == 1 && strings.Contains(cfg.CORSAllowedOrigins[0], ",") {
		cfg.CORSAllowedOrigins = strings.Split(cfg.CORSAllowedOrigins[0], ",")
	}

	return &cfg, Validate(&cfg)
}

// Validate checks the fields that would otherwise fail late
func Validate(cfg *Config) error {
	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid db_driver %q", cfg.DBDriver)
	}
	if cfg.DBDSN == "" {
		return errors.New("db_dsn is empty")
	}
	if u, err := url.Parse(cfg.PricingURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("pricing_url must be an http(s) URL")
	}
	if cfg.EbayDailyLimit < 0 {
		return errors.New("invalid ebay_daily_limit")
	}
	if cfg.EbayRPS < 0 {
		return errors.New("invalid ebay_rps")
	}
	if cfg.CacheSize < 0 {
		return errors.New("invalid cache_size")
	}
	if cfg.ShippingDefault < 0 {
		return errors.New("invalid shipping_default")
	}
	switch cfg.PageRenderer {
	case "http", "chrome":
	default:
		return fmt.Errorf("invalid page_renderer %q", cfg.PageRenderer)
	}
	return nil
}
