package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Sensor   SensorConfig   `mapstructure:"sensor"`
}

// ServerConfig defines server ports and addresses
type ServerConfig struct {
	APIPort         int    `mapstructure:"api_port"`
	MetricsPort     int    `mapstructure:"metrics_port"`
	BindAddress     string `mapstructure:"bind_address"`
	RateLimit       int    `mapstructure:"rate_limit"`
	RateLimitWindow string `mapstructure:"rate_limit_window"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type  string      `mapstructure:"type"` // "bolt" or "redis"
	Path  string      `mapstructure:"path"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TrackingConfig defines usage tracking settings
type TrackingConfig struct {
	// PlaceholderTargets are the well-known names the series query
	// fills in when too few targets have real data.
	PlaceholderTargets []string `mapstructure:"placeholder_targets"`
}

// SensorConfig defines the simulated sensor feed settings
type SensorConfig struct {
	UpdateInterval  string  `mapstructure:"update_interval"`
	StepsPerTickMin int     `mapstructure:"steps_per_tick_min"`
	StepsPerTickMax int     `mapstructure:"steps_per_tick_max"`
	CaloriesPerStep float64 `mapstructure:"calories_per_step"`
	SeedStepsMin    int     `mapstructure:"seed_steps_min"`
	SeedStepsMax    int     `mapstructure:"seed_steps_max"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("PULSEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.api_port", 8377)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.bind_address", "127.0.0.1")
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("server.rate_limit_window", "1m")

	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", "/var/lib/pulsedesk/pulsedesk.bolt")
	v.SetDefault("storage.redis.host", "127.0.0.1")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Tracking defaults
	v.SetDefault("tracking.placeholder_targets", []string{
		"GitHub", "LinkedIn", "VS Code", "Browser",
	})

	// Sensor defaults
	v.SetDefault("sensor.update_interval", "5s")
	v.SetDefault("sensor.steps_per_tick_min", 5)
	v.SetDefault("sensor.steps_per_tick_max", 19)
	v.SetDefault("sensor.calories_per_step", 0.04)
	v.SetDefault("sensor.seed_steps_min", 2000)
	v.SetDefault("sensor.seed_steps_max", 4999)
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.APIPort <= 0 || cfg.Server.APIPort > 65535 {
		return fmt.Errorf("invalid API port: %d", cfg.Server.APIPort)
	}
	if cfg.Server.MetricsPort <= 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit: %d", cfg.Server.RateLimit)
	}

	switch cfg.Storage.Type {
	case "bolt":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for bolt storage")
		}
	case "redis":
		if cfg.Storage.Redis.Host == "" {
			return fmt.Errorf("storage.redis.host is required for redis storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be bolt or redis)", cfg.Storage.Type)
	}

	switch cfg.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	if cfg.Sensor.StepsPerTickMin <= 0 || cfg.Sensor.StepsPerTickMax < cfg.Sensor.StepsPerTickMin {
		return fmt.Errorf("invalid sensor steps per tick range: %d-%d",
			cfg.Sensor.StepsPerTickMin, cfg.Sensor.StepsPerTickMax)
	}
	if cfg.Sensor.CaloriesPerStep < 0 {
		return fmt.Errorf("invalid sensor calories per step: %f", cfg.Sensor.CaloriesPerStep)
	}

	return nil
}
