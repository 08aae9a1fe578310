package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/civiclens/civiclens/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Auth      sharedConfig.AuthConfig      `mapstructure:"auth"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Oracle    sharedConfig.OracleConfig    `mapstructure:"oracle"`
	Storage   sharedConfig.StorageConfig   `mapstructure:"storage"`
	Geocoding sharedConfig.GeocodingConfig `mapstructure:"geocoding"`
	Intake    sharedConfig.IntakeConfig    `mapstructure:"intake"`
	Triage    sharedConfig.TriageConfig    `mapstructure:"triage"`
	Reward    sharedConfig.RewardConfig    `mapstructure:"reward"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (when present) and CIVICLENS_* environment variables.
// A missing config file is not an error: defaults plus environment are enough to boot.
func Load(env string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")

	v.SetEnvPrefix("CIVICLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.base_url", "http://localhost:8080")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "civiclens_dev")
	v.SetDefault("database.sqlite_path", "civiclens.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("auth.jwt.secret", "change-me-in-production")
	v.SetDefault("auth.jwt.issuer", "civiclens")
	v.SetDefault("auth.jwt.access_exp_minutes", 60)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("oracle.model", "gemini-2.5-flash")
	v.SetDefault("oracle.timeout", "20s")
	v.SetDefault("oracle.temperature", 0.1)
	v.SetDefault("oracle.requests_per_second", 2.0)
	v.SetDefault("oracle.burst", 4)

	v.SetDefault("storage.dir", "./data/media")
	v.SetDefault("storage.public_base_url", "http://localhost:8080/media")
	v.SetDefault("storage.fetch_timeout", "15s")
	v.SetDefault("storage.max_image_bytes", 10<<20)

	v.SetDefault("geocoding.api_key", "")
	v.SetDefault("geocoding.endpoint", "https://api.opencagedata.com/geocode/v1/json")
	v.SetDefault("geocoding.timeout", "5s")
	v.SetDefault("geocoding.cache_ttl", "24h")

	v.SetDefault("intake.require_image", false)
	v.SetDefault("intake.reports_per_user_hourly", 20)
	v.SetDefault("intake.provenance.max_age", "24h")
	v.SetDefault("intake.provenance.max_distance_km", 1.0)
	v.SetDefault("intake.duplicate.radius_degrees", 0.0005)
	v.SetDefault("intake.duplicate.max_candidates", 3)

	v.SetDefault("triage.inline_worker", true)
	v.SetDefault("triage.concurrency", 2)
	v.SetDefault("triage.max_attempts", 3)
	v.SetDefault("triage.sweep_interval", "5m")
	v.SetDefault("triage.stale_after", "10m")
	v.SetDefault("triage.sweep_batch", 50)

	v.SetDefault("reward.resolution_amount", 50)
}
