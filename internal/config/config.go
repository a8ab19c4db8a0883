// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Geofence GeofenceConfig `mapstructure:"geofence"`
	Preload  PreloadConfig  `mapstructure:"preload"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// UpstreamConfig identifies the external vessel data source.
type UpstreamConfig struct {
	Host      string `mapstructure:"host"`
	ImageHost string `mapstructure:"image_host"`
	UserAgent string `mapstructure:"user_agent"`
}

// FetcherConfig governs headless page fetching.
type FetcherConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Attempts     int           `mapstructure:"attempts"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	NavTimeout   time.Duration `mapstructure:"nav_timeout"`
	ReadyWait    time.Duration `mapstructure:"ready_wait"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	MaxParallel  int           `mapstructure:"max_parallel"`
	DomainQPS    float64       `mapstructure:"domain_qps"`
}

// CacheConfig sets the TTL classes and fast-tier housekeeping threshold.
type CacheConfig struct {
	SuccessTTL       time.Duration `mapstructure:"success_ttl"`
	DefaultTTL       time.Duration `mapstructure:"default_ttl"`
	ErrorTTL         time.Duration `mapstructure:"error_ttl"`
	CleanupThreshold int           `mapstructure:"cleanup_threshold"`
}

// RedisConfig controls the durable cache tier. An empty Addr disables
// Redis and the cache degrades to a second in-process store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GeofenceConfig bounds the plausible operating region for fallback
// coordinate validation.
type GeofenceConfig struct {
	LatMin float64 `mapstructure:"lat_min"`
	LatMax float64 `mapstructure:"lat_max"`
	LonMin float64 `mapstructure:"lon_min"`
	LonMax float64 `mapstructure:"lon_max"`
}

// PreloadConfig bounds batched background resolution.
type PreloadConfig struct {
	BatchSize  int           `mapstructure:"batch_size"`
	BatchPause time.Duration `mapstructure:"batch_pause"`
	Stagger    time.Duration `mapstructure:"stagger"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VESSELWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("upstream.host", "example.com")
	v.SetDefault("upstream.image_host", "https://photos.example.com")
	v.SetDefault("upstream.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("fetcher.enabled", true)
	v.SetDefault("fetcher.attempts", 3)
	v.SetDefault("fetcher.retry_backoff", "2s")
	v.SetDefault("fetcher.nav_timeout", "30s")
	v.SetDefault("fetcher.ready_wait", "10s")
	v.SetDefault("fetcher.settle_delay", "3s")
	v.SetDefault("fetcher.max_parallel", 3)
	v.SetDefault("fetcher.domain_qps", 1.0)
	v.SetDefault("cache.success_ttl", "10m")
	v.SetDefault("cache.default_ttl", "5m")
	v.SetDefault("cache.error_ttl", "2m")
	v.SetDefault("cache.cleanup_threshold", 512)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	// Default operating region: Singapore Strait / Malacca approaches.
	v.SetDefault("geofence.lat_min", 0.0)
	v.SetDefault("geofence.lat_max", 3.5)
	v.SetDefault("geofence.lon_min", 100.0)
	v.SetDefault("geofence.lon_max", 106.5)
	v.SetDefault("preload.batch_size", 3)
	v.SetDefault("preload.batch_pause", "200ms")
	v.SetDefault("preload.stagger", "100ms")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Upstream.Host == "" {
		return fmt.Errorf("upstream.host must be set")
	}
	if c.Fetcher.Attempts <= 0 {
		return fmt.Errorf("fetcher.attempts must be > 0")
	}
	if c.Cache.SuccessTTL <= 0 || c.Cache.DefaultTTL <= 0 || c.Cache.ErrorTTL <= 0 {
		return fmt.Errorf("cache TTLs must be > 0")
	}
	if c.Geofence.LatMin >= c.Geofence.LatMax || c.Geofence.LonMin >= c.Geofence.LonMax {
		return fmt.Errorf("geofence bounds must describe a non-empty box")
	}
	if c.Geofence.LatMin < -90 || c.Geofence.LatMax > 90 ||
		c.Geofence.LonMin < -180 || c.Geofence.LonMax > 180 {
		return fmt.Errorf("geofence bounds must be valid coordinates")
	}
	if c.Preload.BatchSize <= 0 {
		return fmt.Errorf("preload.batch_size must be > 0")
	}
	return nil
}
