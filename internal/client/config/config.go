package config

import (
	"os"
	"path/filepath"
	"time"
)

const DefaultServerBaseURL = "https://book-store-backend-m6sa.onrender.com/api"

// Config holds runtime settings for the bookstore client.
type Config struct {
	ServerBaseURL  string
	DataDir        string
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int
	LogLevel       string
	LogFormat      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = DefaultServerBaseURL
	c.DataDir = defaultDataDir()
	c.RequestTimeout = 0
	c.RateLimit = 0
	c.RateBurst = 1
	c.LogLevel = "warn"
	c.LogFormat = "text"
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "bookstore")
	}
	return ".bookstore"
}

// LoadConfig applies defaults, then the config file (if any), then flags.
// Later sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
