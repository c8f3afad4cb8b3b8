package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Paul-Pranta/bookspp/pkg/utils"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org"
	DefaultListen    = ":8080"
	DefaultTimeout   = 30 * time.Second
	DefaultLogLevel  = "info"
	DefaultUserAgent = "bookspp/1.0 (+https://github.com/Paul-Pranta/bookspp)"
)

// Config mirrors bookspp.yaml
type Config struct {
	BaseURL   string        `yaml:"base_url"`
	CoversURL string        `yaml:"covers_url"`
	Listen    string        `yaml:"listen"`
	Timeout   time.Duration `yaml:"timeout"`
	LogLevel  string        `yaml:"log_level"`
	UserAgent string        `yaml:"user_agent"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		CoversURL: DefaultCoversURL,
		Listen:    DefaultListen,
		Timeout:   DefaultTimeout,
		LogLevel:  DefaultLogLevel,
		UserAgent: DefaultUserAgent,
	}
}

// Load reads the YAML file at path (if any) over the defaults, then applies
// BOOKSPP_* environment overrides. An empty path falls back to
// $BOOKSPP_CONFIG; a missing file at that path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = utils.GetEnv("BOOKSPP_CONFIG", "")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, utils.WrapError(err, "parse config "+path)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, utils.WrapError(err, "read config "+path)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.BaseURL = utils.GetEnv("BOOKSPP_BASE_URL", c.BaseURL)
	c.CoversURL = utils.GetEnv("BOOKSPP_COVERS_URL", c.CoversURL)
	c.Listen = utils.GetEnv("BOOKSPP_LISTEN", c.Listen)
	c.Timeout = utils.ParseDuration(utils.GetEnv("BOOKSPP_TIMEOUT", ""), c.Timeout)
	c.LogLevel = utils.GetEnv("BOOKSPP_LOG_LEVEL", c.LogLevel)
	c.UserAgent = utils.GetEnv("BOOKSPP_USER_AGENT", c.UserAgent)
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if !utils.IsAbsoluteURL(c.BaseURL) {
		return fmt.Errorf("base_url must be an absolute URL, got %q", c.BaseURL)
	}
	if !utils.IsAbsoluteURL(c.CoversURL) {
		return fmt.Errorf("covers_url must be an absolute URL, got %q", c.CoversURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
