package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	LogLevel   string        `mapstructure:"log_level"`
	Port       int           `mapstructure:"port"`
	CORSOrigin string        `mapstructure:"cors_origin"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Inbox      int           `mapstructure:"inbox"`

	Backpressure      string `mapstructure:"backpressure"`
	EnforceMembership bool   `mapstructure:"enforce_membership"`
	ColorSeed         uint64 `mapstructure:"color_seed"`

	RedisAddr    string `mapstructure:"redis_addr"`
	RedisDB      int    `mapstructure:"redis_db"`
	RedisChannel string `mapstructure:"redis_channel"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 4000)
	v.SetDefault("cors_origin", "http://localhost:3000")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "25s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("inbox", 1024)
	v.SetDefault("backpressure", "drop")
	v.SetDefault("enforce_membership", false)
	v.SetDefault("color_seed", 0)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_channel", "whiteboard")

	// PORT and CORS_ORIGIN keep their historical names; every other key
	// reads from its upper-cased env var.
	v.AutomaticEnv()
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("cors_origin", "CORS_ORIGIN")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.PingPeriod >= cfg.PongWait {
		return nil, fmt.Errorf("ping_period %s must be shorter than pong_wait %s", cfg.PingPeriod, cfg.PongWait)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("cors_origin", cfg.CORSOrigin).Bool("bus", cfg.RedisAddr != "").Msg("config ready")
	return &cfg, nil
}

// AllowAnyOrigin reports whether CORS_ORIGIN is "*".
func (c *Config) AllowAnyOrigin() bool {
	return strings.TrimSpace(c.CORSOrigin) == "*"
}

// Origins returns the comma-separated CORS_ORIGIN list, trimmed.
func (c *Config) Origins() []string {
	var out []string
	for _, s := range strings.Split(c.CORSOrigin, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
