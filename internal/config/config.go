package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Log      LogConfig
	Routing  RoutingConfig
	Fare     FareConfig
	Matching MatchingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration and the storage choice.
type DatabaseConfig struct {
	Driver      string // postgres or memory
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
	SeedDemo    bool
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Format string // json or text
}

// RoutingConfig holds the distance provider configuration.
type RoutingConfig struct {
	OSRMEnabled bool
	OSRMBaseURL string
	Timeout     time.Duration
}

// FareConfig holds fare calculation settings.
type FareConfig struct {
	Timezone string
}

// MatchingConfig holds arbitration and candidate surfacing settings.
type MatchingConfig struct {
	DriverLockTTL     time.Duration
	CandidateCacheTTL time.Duration
}

// Location resolves the fare time zone.
func (c FareConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid fare timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from the environment, on top of the optional
// file named by CONFIG_FILE. The returned Config is always usable; a non-nil
// error only reports a config file that could not be read.
func Load() (*Config, error) {
	return load(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("db.driver", StorageMemory)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "drivemate")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.auto_migrate", false)
	v.SetDefault("db.seed_demo", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("new_relic.app_name", "drivemate")
	v.SetDefault("new_relic.license_key", "")
	v.SetDefault("new_relic.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("routing.osrm_enabled", true)
	v.SetDefault("routing.osrm_url", "https://router.project-osrm.org")
	v.SetDefault("routing.timeout", 5*time.Second)

	v.SetDefault("fare.timezone", "UTC")

	v.SetDefault("matching.driver_lock_ttl", 10*time.Second)
	v.SetDefault("matching.candidate_cache_ttl", 15*time.Second)
}

func load(v *viper.Viper) (*Config, error) {
	var fileErr error
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			fileErr = fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(v.GetString("db.driver")),
			Host:        v.GetString("db.host"),
			Port:        v.GetString("db.port"),
			User:        v.GetString("db.user"),
			Password:    v.GetString("db.password"),
			DBName:      v.GetString("db.name"),
			SSLMode:     v.GetString("db.sslmode"),
			AutoMigrate: v.GetBool("db.auto_migrate"),
			SeedDemo:    v.GetBool("db.seed_demo"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		NewRelic: NewRelicConfig{
			AppName:    v.GetString("new_relic.app_name"),
			LicenseKey: v.GetString("new_relic.license_key"),
			Enabled:    v.GetBool("new_relic.enabled"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Routing: RoutingConfig{
			OSRMEnabled: v.GetBool("routing.osrm_enabled"),
			OSRMBaseURL: v.GetString("routing.osrm_url"),
			Timeout:     v.GetDuration("routing.timeout"),
		},
		Fare: FareConfig{
			Timezone: v.GetString("fare.timezone"),
		},
		Matching: MatchingConfig{
			DriverLockTTL:     v.GetDuration("matching.driver_lock_ttl"),
			CandidateCacheTTL: v.GetDuration("matching.candidate_cache_ttl"),
		},
	}

	if cfg.Database.Driver != StoragePostgres && cfg.Database.Driver != StorageMemory {
		cfg.Database.Driver = StorageMemory
	}
	return cfg, fileErr
}
