package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/davidsauntson/spidr/internal/session"
)

// Config holds application configuration from env. These are the
// process-wide defaults; the session cache captures them once at
// construction and never re-reads them.
type Config struct {
	ProxyHost     string `validate:"required_with=ProxyPort"`
	ProxyPort     int    `validate:"gte=0,lte=65535"`
	ProxyUser     string
	ProxyPassword string

	OpenTimeout      time.Duration `validate:"gte=0"`
	ReadTimeout      time.Duration `validate:"gte=0"`
	ContinueTimeout  time.Duration `validate:"gte=0"`
	KeepAliveTimeout time.Duration `validate:"gte=0"`
	SSLTimeout       time.Duration `validate:"gte=0"`

	UserAgent  string
	MaxDepth   int           `validate:"gte=0"`
	MaxPages   int           `validate:"gte=0"`
	Workers    int           `validate:"gte=1"`
	Delay      time.Duration `validate:"gte=0"`
	DataDir    string        `validate:"required"`
	SaveFormat string        `validate:"oneof=csv parquet json"`
	LogLevel   string        `validate:"oneof=debug info warn error"`
}

// LoadConfig reads config from environment.
func LoadConfig() *Config {
	return &Config{
		ProxyHost:     os.Getenv("SPIDR_PROXY_HOST"),
		ProxyPort:     getEnvInt("SPIDR_PROXY_PORT", 0),
		ProxyUser:     os.Getenv("SPIDR_PROXY_USER"),
		ProxyPassword: os.Getenv("SPIDR_PROXY_PASSWORD"),

		OpenTimeout:      getEnvDuration("SPIDR_OPEN_TIMEOUT", 0),
		ReadTimeout:      getEnvDuration("SPIDR_READ_TIMEOUT", 0),
		ContinueTimeout:  getEnvDuration("SPIDR_CONTINUE_TIMEOUT", 0),
		KeepAliveTimeout: getEnvDuration("SPIDR_KEEP_ALIVE_TIMEOUT", 0),
		SSLTimeout:       getEnvDuration("SPIDR_SSL_TIMEOUT", 0),

		UserAgent:  getEnv("SPIDR_USER_AGENT", ""),
		MaxDepth:   getEnvInt("SPIDR_MAX_DEPTH", 0),
		MaxPages:   getEnvInt("SPIDR_MAX_PAGES", 0),
		Workers:    getEnvInt("SPIDR_WORKERS", 1),
		Delay:      getEnvDuration("SPIDR_DELAY", 0),
		DataDir:    getEnv("DATA_DIR", "data"),
		SaveFormat: getEnv("SAVE_FORMAT", "json"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

var validate = validator.New()

// Validate fails fast on malformed settings before anything dials out.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.ProxyHost != "" && c.ProxyPort == 0 {
		return fmt.Errorf("config: SPIDR_PROXY_HOST set without SPIDR_PROXY_PORT")
	}
	return nil
}

// SessionOptions maps the process-wide defaults into the bundle the
// session cache captures. Zero timeouts defer to the session package
// defaults.
func (c *Config) SessionOptions() session.Options {
	opts := session.Options{
		OpenTimeout:      c.OpenTimeout,
		ReadTimeout:      c.ReadTimeout,
		ContinueTimeout:  c.ContinueTimeout,
		KeepAliveTimeout: c.KeepAliveTimeout,
		SSLTimeout:       c.SSLTimeout,
	}
	if c.ProxyHost != "" {
		opts.Proxy = &session.Proxy{
			Host:     c.ProxyHost,
			Port:     c.ProxyPort,
			User:     c.ProxyUser,
			Password: c.ProxyPassword,
		}
	}
	return opts
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
