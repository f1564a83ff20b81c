package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	NewRelic  NewRelicConfig  `yaml:"newrelic"`
	Admin     AdminConfig     `yaml:"admin"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Distance  DistanceConfig  `yaml:"distance"`
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Env string `yaml:"env"` // "production" selects the JSON logger
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds record store configuration.
type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	DBName     string `yaml:"dbname"`
	SSLMode    string `yaml:"sslmode"`
	SQLitePath string `yaml:"sqlite_path"`
	SQLitePool int    `yaml:"sqlite_pool"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string `yaml:"app_name"`
	LicenseKey string `yaml:"license_key"`
	Enabled    bool   `yaml:"enabled"`
}

// AdminConfig controls access to the admin routes.
type AdminConfig struct {
	LocalOnly     bool     `yaml:"local_only"`
	RemoteEnabled bool     `yaml:"remote_enabled"`
	APIKey        string   `yaml:"api_key"`
	IPAllowlist   []string `yaml:"ip_allowlist"`

	// TrustedProxies lists the proxy IPs or CIDRs whose forwarding headers
	// are believed when resolving the caller IP. Empty trusts none.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// Rate limiter backends.
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// RateLimitConfig holds limiter settings.
type RateLimitConfig struct {
	Backend      string     `yaml:"backend"`
	MaxKeys      int        `yaml:"max_keys"`
	AdminList    RatePolicy `yaml:"admin_list"`
	AdminConfirm RatePolicy `yaml:"admin_confirm"`
	Distance     RatePolicy `yaml:"distance"`
	Submit       RatePolicy `yaml:"submit"`
}

// RatePolicy is a call budget per window.
type RatePolicy struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// DistanceConfig holds distance lookup settings.
type DistanceConfig struct {
	APIKey   string        `yaml:"api_key"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{Env: "development"},
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:     DriverPostgres,
			Host:       "localhost",
			Port:       "5432",
			User:       "postgres",
			Password:   "postgres",
			DBName:     "ride_requests",
			SSLMode:    "disable",
			SQLitePath: "ride_requests.db",
			SQLitePool: 4,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		NewRelic: NewRelicConfig{
			AppName: "ride-request-intake",
		},
		Admin: AdminConfig{
			LocalOnly: true,
		},
		RateLimit: RateLimitConfig{
			Backend:      RateLimitMemory,
			MaxKeys:      10000,
			AdminList:    RatePolicy{Limit: 60, Window: time.Minute},
			AdminConfirm: RatePolicy{Limit: 30, Window: time.Minute},
			Distance:     RatePolicy{Limit: 30, Window: time.Minute},
			Submit:       RatePolicy{Limit: 20, Window: time.Minute},
		},
		Distance: DistanceConfig{
			CacheTTL: 24 * time.Hour,
		},
	}
}

// Load builds the configuration from the defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.RateLimit.Backend {
	case RateLimitMemory:
	case RateLimitRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("rate limit backend %q requires REDIS_ENABLED", c.RateLimit.Backend)
		}
	default:
		return fmt.Errorf("unsupported rate limit backend %q", c.RateLimit.Backend)
	}
	for name, p := range map[string]RatePolicy{
		"admin_list":    c.RateLimit.AdminList,
		"admin_confirm": c.RateLimit.AdminConfirm,
		"distance":      c.RateLimit.Distance,
		"submit":        c.RateLimit.Submit,
	} {
		if p.Limit < 1 || p.Window <= 0 {
			return fmt.Errorf("rate limit %s: limit and window must be positive", name)
		}
	}
	for _, p := range c.Admin.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("invalid trusted proxy %q", p)
			}
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)

	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Database.Driver = strings.ToLower(getEnv("DB_DRIVER", cfg.Database.Driver))
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.SQLitePath = getEnv("SQLITE_PATH", cfg.Database.SQLitePath)
	cfg.Database.SQLitePool = getIntEnv("SQLITE_POOL_SIZE", cfg.Database.SQLitePool)

	cfg.Redis.Enabled = getBoolEnv("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getIntEnv("REDIS_DB", cfg.Redis.DB)

	cfg.NewRelic.AppName = getEnv("NEW_RELIC_APP_NAME", cfg.NewRelic.AppName)
	cfg.NewRelic.LicenseKey = getEnv("NEW_RELIC_LICENSE_KEY", cfg.NewRelic.LicenseKey)
	cfg.NewRelic.Enabled = getBoolEnv("NEW_RELIC_ENABLED", cfg.NewRelic.Enabled)

	cfg.Admin.LocalOnly = getBoolEnv("ADMIN_LOCAL_ONLY", cfg.Admin.LocalOnly)
	cfg.Admin.RemoteEnabled = getBoolEnv("ADMIN_REMOTE_ENABLED", cfg.Admin.RemoteEnabled)
	cfg.Admin.APIKey = getEnv("ADMIN_API_KEY", cfg.Admin.APIKey)
	cfg.Admin.IPAllowlist = getListEnv("ADMIN_IP_ALLOWLIST", cfg.Admin.IPAllowlist)
	cfg.Admin.TrustedProxies = getListEnv("ADMIN_TRUSTED_PROXIES", cfg.Admin.TrustedProxies)

	cfg.RateLimit.Backend = strings.ToLower(getEnv("RATE_LIMIT_BACKEND", cfg.RateLimit.Backend))
	cfg.RateLimit.MaxKeys = getIntEnv("RATE_LIMIT_MAX_KEYS", cfg.RateLimit.MaxKeys)
	cfg.RateLimit.AdminList = getPolicyEnv("RATE_LIMIT_ADMIN_LIST", cfg.RateLimit.AdminList)
	cfg.RateLimit.AdminConfirm = getPolicyEnv("RATE_LIMIT_ADMIN_CONFIRM", cfg.RateLimit.AdminConfirm)
	cfg.RateLimit.Distance = getPolicyEnv("RATE_LIMIT_DISTANCE", cfg.RateLimit.Distance)
	cfg.RateLimit.Submit = getPolicyEnv("RATE_LIMIT_SUBMIT", cfg.RateLimit.Submit)

	cfg.Distance.APIKey = getEnv("GOOGLE_MAPS_API_KEY", cfg.Distance.APIKey)
	cfg.Distance.CacheTTL = getDurationEnv("DISTANCE_CACHE_TTL", cfg.Distance.CacheTTL)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping empty entries.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getPolicyEnv reads <prefix>_LIMIT and <prefix>_WINDOW.
func getPolicyEnv(prefix string, defaultValue RatePolicy) RatePolicy {
	return RatePolicy{
		Limit:  getIntEnv(prefix+"_LIMIT", defaultValue.Limit),
		Window: getDurationEnv(prefix+"_WINDOW", defaultValue.Window),
	}
}
