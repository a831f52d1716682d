package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port      int    `env:"PORT"       envDefault:"8080"`
	RTSPURL   string `env:"RTSP_URL,required,notEmpty"`
	FFmpegBin string `env:"FFMPEG_BIN" envDefault:"ffmpeg"`

	DefaultTimeoutMs int `env:"CAPTURE_DEFAULT_TIMEOUT_MS" envDefault:"10000"`
	MaxTimeoutMs     int `env:"CAPTURE_MAX_TIMEOUT_MS"     envDefault:"60000"`
	MaxConcurrent    int `env:"CAPTURE_MAX_CONCURRENT"     envDefault:"0"`

	MetricsPort    int    `env:"METRICS_PORT"    envDefault:"9090"`
	JaegerEndpoint string `env:"JAEGER_ENDPOINT"`
	LogLevel       string `env:"LOG_LEVEL"       envDefault:"info"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DefaultTimeoutMs <= 0 {
		return fmt.Errorf("CAPTURE_DEFAULT_TIMEOUT_MS must be positive, got %d", c.DefaultTimeoutMs)
	}
	if c.MaxTimeoutMs < 0 {
		return fmt.Errorf("CAPTURE_MAX_TIMEOUT_MS must not be negative, got %d", c.MaxTimeoutMs)
	}
	if c.MaxTimeoutMs > 0 && c.DefaultTimeoutMs > c.MaxTimeoutMs {
		return fmt.Errorf("CAPTURE_DEFAULT_TIMEOUT_MS (%d) exceeds CAPTURE_MAX_TIMEOUT_MS (%d)",
			c.DefaultTimeoutMs, c.MaxTimeoutMs)
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("CAPTURE_MAX_CONCURRENT must not be negative, got %d", c.MaxConcurrent)
	}
	return nil
}
