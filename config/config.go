package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr string         `mapstructure:"listen_addr"`
	LogLevel   string         `mapstructure:"log_level"`
	NotesDir   string         `mapstructure:"notes_dir"`
	Database   DatabaseConfig `mapstructure:"database"`
	Auth       AuthConfig     `mapstructure:"auth"`
	CORS       CORSConfig     `mapstructure:"cors"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AcquireTimeout  time.Duration `mapstructure:"acquire_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	PingRetries     int           `mapstructure:"ping_retries"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type CORSConfig struct {
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// DSN returns the explicit URL when set, otherwise one built from the
// discrete connection fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + d.Port,
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Load reads configuration from defaults, an optional YAML file and
// HOMESTEAD_* environment variables, in increasing precedence. An empty
// configFile looks for config.yaml in the working directory.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("notes_dir", "./data/stories")
	v.SetDefault("database.url", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.sslmode", "require")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.acquire_timeout", "5s")
	v.SetDefault("database.query_timeout", "10s")
	v.SetDefault("database.ping_retries", 5)
	v.SetDefault("database.ping_interval", "2s")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("cors.allowed_origin", "*")

	v.SetEnvPrefix("HOMESTEAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Plain names kept for existing .env files.
	_ = v.BindEnv("database.url", "HOMESTEAD_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("database.user", "HOMESTEAD_DATABASE_USER", "user")
	_ = v.BindEnv("database.password", "HOMESTEAD_DATABASE_PASSWORD", "password")
	_ = v.BindEnv("database.host", "HOMESTEAD_DATABASE_HOST", "host")
	_ = v.BindEnv("database.port", "HOMESTEAD_DATABASE_PORT", "port")
	_ = v.BindEnv("database.name", "HOMESTEAD_DATABASE_NAME", "dbname")
	_ = v.BindEnv("auth.jwt_secret", "HOMESTEAD_AUTH_JWT_SECRET", "JWT_SECRET", "SUPABASE_JWT_SECRET")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return errors.New("database.max_open_conns must be positive")
	}
	if c.Database.AcquireTimeout <= 0 {
		return errors.New("database.acquire_timeout must be positive")
	}
	if c.Database.PingRetries <= 0 {
		return errors.New("database.ping_retries must be positive")
	}
	return nil
}
