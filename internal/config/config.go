package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageSQL      = "sql"
	StorageInMemory = "inmemory"
)

// Config is the whole runtime configuration. Sources apply in order:
// defaults, YAML file, .env file, process environment.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Kafka     KafkaConfig     `yaml:"kafka"`
}

type AppConfig struct {
	Port        string   `yaml:"port"`
	Env         string   `yaml:"env"`
	LogLevel    string   `yaml:"log_level"`
	LogDir      string   `yaml:"log_dir"`
	Storage     string   `yaml:"storage"`
	CorsOrigins []string `yaml:"cors_origins"`

	// IPs or CIDRs whose X-Forwarded-For and X-Real-IP headers are honoured.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type DatabaseConfig struct {
	Driver  string `yaml:"driver"`
	FullDSN string `yaml:"full_dsn"`
	User    string `yaml:"user"`
	Pass    string `yaml:"pass"`
	Host    string `yaml:"host"`
	Port    string `yaml:"port"`
	Name    string `yaml:"name"`
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// RateLimitConfig is disabled when RedisAddr is empty.
type RateLimitConfig struct {
	RedisAddr string  `yaml:"redis_addr"`
	RPS       float64 `yaml:"rps"`
	Burst     int     `yaml:"burst"`
}

// KafkaConfig is disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

func Default() *Config {
	return &Config{
		App: AppConfig{
			Port:        "8000",
			Env:         "development",
			LogLevel:    "info",
			Storage:     StorageSQL,
			CorsOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: "mysql",
			Host:   "127.0.0.1",
			Port:   "3306",
			Name:   "bank_ledger",
		},
		Auth: AuthConfig{
			TokenTTLMinutes: 30,
		},
		RateLimit: RateLimitConfig{
			RPS:   1,
			Burst: 5,
		},
		Kafka: KafkaConfig{
			Topic: "ledger.transaction.changed",
		},
	}
}

// Load builds the configuration. An empty path skips the YAML file; a
// missing .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (cfg *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("APP_PORT", &cfg.App.Port)
	str("APP_ENV", &cfg.App.Env)
	str("LOG_LEVEL", &cfg.App.LogLevel)
	str("LOG_DIR", &cfg.App.LogDir)
	str("STORAGE", &cfg.App.Storage)
	list("CORS_ORIGINS", &cfg.App.CorsOrigins)
	list("TRUSTED_PROXIES", &cfg.App.TrustedProxies)

	str("DB_DRIVER", &cfg.Database.Driver)
	str("FULL_DSN", &cfg.Database.FullDSN)
	str("DB_USER", &cfg.Database.User)
	str("DB_PASS", &cfg.Database.Pass)
	str("DB_HOST", &cfg.Database.Host)
	str("DB_PORT", &cfg.Database.Port)
	str("DB_NAME", &cfg.Database.Name)

	str("JWT_SECRET", &cfg.Auth.JWTSecret)
	if v, ok := lookup("TOKEN_TTL_MINUTES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL_MINUTES must be an integer, got %q", v)
		}
		cfg.Auth.TokenTTLMinutes = n
	}

	str("REDIS_ADDR", &cfg.RateLimit.RedisAddr)
	if v, ok := lookup("LOGIN_RATE_RPS"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("LOGIN_RATE_RPS must be a number, got %q", v)
		}
		cfg.RateLimit.RPS = f
	}
	if v, ok := lookup("LOGIN_RATE_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOGIN_RATE_BURST must be an integer, got %q", v)
		}
		cfg.RateLimit.Burst = n
	}

	list("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	str("KAFKA_TOPIC", &cfg.Kafka.Topic)
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Auth.TokenTTLMinutes <= 0 {
		return fmt.Errorf("token ttl must be positive, got %d minutes", cfg.Auth.TokenTTLMinutes)
	}

	switch cfg.App.Storage {
	case StorageInMemory:
	case StorageSQL:
		switch strings.ToLower(cfg.Database.Driver) {
		case "mysql", "postgres", "postgresql":
		default:
			return fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported storage: %q", cfg.App.Storage)
	}

	for _, proxy := range cfg.App.TrustedProxies {
		if _, err := netip.ParsePrefix(proxy); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(proxy); err != nil {
			return fmt.Errorf("invalid trusted proxy %q", proxy)
		}
	}

	if cfg.RateLimit.RedisAddr != "" && (cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}
	return nil
}

func (cfg *Config) TokenTTL() time.Duration {
	return time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute
}

// DSN returns FULL_DSN when set, otherwise a DSN assembled from the parts.
// MySQL DSNs always get parseTime so DATE columns scan into time.Time.
func (db DatabaseConfig) DSN() (string, error) {
	switch strings.ToLower(db.Driver) {
	case "mysql":
		if db.FullDSN != "" {
			parsed, err := mysql.ParseDSN(db.FullDSN)
			if err != nil {
				return "", fmt.Errorf("invalid FULL_DSN: %w", err)
			}
			parsed.ParseTime = true
			return parsed.FormatDSN(), nil
		}
		if db.User == "" || db.Host == "" || db.Port == "" {
			return "", fmt.Errorf("missing required DB environment variables")
		}
		mc := mysql.NewConfig()
		mc.User = db.User
		mc.Passwd = db.Pass
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(db.Host, db.Port)
		mc.DBName = db.Name
		mc.ParseTime = true
		return mc.FormatDSN(), nil
	case "postgres", "postgresql":
		if db.FullDSN != "" {
			return db.FullDSN, nil
		}
		if db.User == "" || db.Host == "" || db.Port == "" {
			return "", fmt.Errorf("missing required DB environment variables")
		}
		parts := []string{
			"host=" + quoteDSNValue(db.Host),
			"port=" + quoteDSNValue(db.Port),
			"user=" + quoteDSNValue(db.User),
		}
		if db.Pass != "" {
			parts = append(parts, "password="+quoteDSNValue(db.Pass))
		}
		if db.Name != "" {
			parts = append(parts, "dbname="+quoteDSNValue(db.Name))
		}
		parts = append(parts, "sslmode=disable")
		return strings.Join(parts, " "), nil
	default:
		return "", fmt.Errorf("unsupported database driver: %q", db.Driver)
	}
}

// quoteDSNValue quotes a libpq key=value parameter when needed.
func quoteDSNValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}
