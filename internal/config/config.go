// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"blog-api/internal/errs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	minSigningKeyLen = 32
	// bcrypt only accepts passwords up to 72 bytes
	maxPasswordBytes = 72
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	DBname          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	Path            string `mapstructure:"path"` // sqlite only
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	DialTimeout  int    `mapstructure:"dial_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	PoolTimeout  int    `mapstructure:"pool_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

type JWTConfig struct {
	SigningKey       string        `mapstructure:"signing_key"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxLoginAttempts int           `mapstructure:"max_login_attempts"`
	LockDuration     time.Duration `mapstructure:"lock_duration"`
}

type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Limit       int64         `mapstructure:"limit"`
	Window      time.Duration `mapstructure:"window"`
	LoginLimit  int64         `mapstructure:"login_limit"`
	LoginWindow time.Duration `mapstructure:"login_window"`
}

// AdminConfig describes the account seeded when the users table is empty.
// Leaving Username blank disables seeding.
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

func LoadConfig(path string) (*Config, error) {
	// .env is optional; values it sets are picked up by AutomaticEnv below.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			log.Printf("config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Println("config loaded successfully")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "blog-api")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.mode", "debug")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "blog.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 10)
	v.SetDefault("redis.read_timeout", 30)
	v.SetDefault("redis.write_timeout", 30)
	v.SetDefault("redis.pool_timeout", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("jwt.timeout", 24*time.Hour)
	v.SetDefault("jwt.max_login_attempts", 5)
	v.SetDefault("jwt.lock_duration", 15*time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.limit", 100)
	v.SetDefault("rate_limit.window", 15*time.Minute)
	v.SetDefault("rate_limit.login_limit", 10)
	v.SetDefault("rate_limit.login_window", 15*time.Minute)

	// viper only maps env vars for keys it already knows about
	v.SetDefault("jwt.signing_key", "")
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("admin.username", "")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}

func validateConfig(cfg *Config) error {
	if cfg.App.Name == "" {
		return fmt.Errorf("app name cannot be empty")
	}
	if cfg.App.Port == "" {
		return fmt.Errorf("app port cannot be empty")
	}

	switch cfg.Database.Driver {
	case DriverMySQL, DriverPostgres:
		if cfg.Database.Host == "" {
			return fmt.Errorf("database host cannot be empty")
		}
		if cfg.Database.Username == "" {
			return fmt.Errorf("database username cannot be empty")
		}
		if cfg.Database.DBname == "" {
			return fmt.Errorf("database name cannot be empty")
		}
	case DriverSQLite:
		if cfg.Database.Path == "" {
			return fmt.Errorf("database path cannot be empty")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis address cannot be empty")
	}

	if err := ValidateSigningKey(cfg.JWT.SigningKey); err != nil {
		return err
	}
	if cfg.JWT.Timeout <= 0 {
		return fmt.Errorf("jwt timeout must be positive")
	}
	if cfg.JWT.MaxLoginAttempts <= 0 {
		return fmt.Errorf("jwt max login attempts must be positive")
	}
	if cfg.JWT.LockDuration <= 0 {
		return fmt.Errorf("jwt lock duration must be positive")
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.Limit <= 0 || cfg.RateLimit.LoginLimit <= 0 {
			return fmt.Errorf("rate limits must be positive")
		}
		if cfg.RateLimit.Window <= 0 || cfg.RateLimit.LoginWindow <= 0 {
			return fmt.Errorf("rate limit windows must be positive")
		}
	}

	if cfg.Admin.Username != "" && (cfg.Admin.Email == "" || cfg.Admin.Password == "") {
		return fmt.Errorf("admin email and password are required when admin username is set")
	}
	if len(cfg.Admin.Password) > maxPasswordBytes {
		return fmt.Errorf("admin password cannot exceed %d bytes", maxPasswordBytes)
	}
	return nil
}

// ValidateSigningKey reports a missing or weak token signing secret as a
// configuration error.
func ValidateSigningKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: jwt signing key cannot be empty", errs.ErrConfiguration)
	}
	if len(key) < minSigningKeyLen {
		return fmt.Errorf("%w: jwt signing key must be at least %d characters", errs.ErrConfiguration, minSigningKeyLen)
	}
	return nil
}
