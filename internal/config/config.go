package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	JWT         JWTConfig         `yaml:"jwt"`
	Redis       RedisConfig       `yaml:"redis"`
	Cache       CacheConfig       `yaml:"cache"`
	Aggregation AggregationConfig `yaml:"aggregation"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// RedisConfig for the optional dashboard refresh queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig controls the dashboard result cache.
// A result younger than FreshMinutes is served as-is. A stale result is
// still served up to RetentionMinutes while a background refresh runs;
// beyond that the entry is evicted and recomputed on next access.
type CacheConfig struct {
	FreshMinutes     int `yaml:"fresh_minutes"`
	RetentionMinutes int `yaml:"retention_minutes"`
}

// AggregationConfig controls the dashboard aggregation pipeline.
type AggregationConfig struct {
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"` // per-fetch timeout
	MaxRetries          int `yaml:"max_retries"`           // whole-pipeline retries on transient failure
	MentionLimit        int `yaml:"mention_limit"`         // max staff/menu-item mention rows per section
	AlertLimit          int `yaml:"alert_limit"`           // max severity alerts
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.applyDefaults()
	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "review_intel.db",
		},
		JWT: JWTConfig{
			Secret:     "review-intel-secret-key-change-in-production",
			ExpireHour: 24,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Cache: CacheConfig{
			FreshMinutes:     15,
			RetentionMinutes: 120,
		},
		Aggregation: AggregationConfig{
			FetchTimeoutSeconds: 10,
			MaxRetries:          2,
			MentionLimit:        10,
			AlertLimit:          20,
		},
	}
}

// applyDefaults fills zero-valued tuning fields so a partial config.yaml
// still yields a working pipeline.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Cache.FreshMinutes <= 0 {
		c.Cache.FreshMinutes = def.Cache.FreshMinutes
	}
	if c.Cache.RetentionMinutes <= 0 {
		c.Cache.RetentionMinutes = def.Cache.RetentionMinutes
	}
	if c.Aggregation.FetchTimeoutSeconds <= 0 {
		c.Aggregation.FetchTimeoutSeconds = def.Aggregation.FetchTimeoutSeconds
	}
	if c.Aggregation.MaxRetries < 0 {
		c.Aggregation.MaxRetries = def.Aggregation.MaxRetries
	}
	if c.Aggregation.MentionLimit <= 0 {
		c.Aggregation.MentionLimit = def.Aggregation.MentionLimit
	}
	if c.Aggregation.AlertLimit <= 0 {
		c.Aggregation.AlertLimit = def.Aggregation.AlertLimit
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if fresh := os.Getenv("CACHE_FRESH_MINUTES"); fresh != "" {
		if v, err := strconv.Atoi(fresh); err == nil && v > 0 {
			c.Cache.FreshMinutes = v
		}
	}
	if retention := os.Getenv("CACHE_RETENTION_MINUTES"); retention != "" {
		if v, err := strconv.Atoi(retention); err == nil && v > 0 {
			c.Cache.RetentionMinutes = v
		}
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// Password format: :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
