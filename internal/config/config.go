package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port            int           `mapstructure:"port"`
	Env             string        `mapstructure:"env"`
	DatabaseURL     string        `mapstructure:"database_url"`
	AllowedOrigins  string        `mapstructure:"allowed_origins"`
	RoundDuration   time.Duration `mapstructure:"round_duration"`
	ArchiveTimeout  time.Duration `mapstructure:"archive_timeout"`
	MessageRate     float64       `mapstructure:"message_rate"`
	MessageBurst    int           `mapstructure:"message_burst"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load reads an optional .env file, then the environment. Environment
// variables are the upper-case form of the mapstructure keys.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	v.SetDefault("port", 8080)
	v.SetDefault("env", "development")
	v.SetDefault("database_url", "")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("round_duration", "90s")
	v.SetDefault("archive_timeout", "10s")
	v.SetDefault("message_rate", 50)
	v.SetDefault("message_burst", 100)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("shutdown_timeout", "5s")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.RoundDuration <= 0 {
		return fmt.Errorf("ROUND_DURATION must be positive, got %s", c.RoundDuration)
	}
	return nil
}

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c *Config) Production() bool { return c.Env == "production" }

// Origins splits AllowedOrigins into websocket origin patterns.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
