// Package cliconfig holds the validated runtime settings of the CLI.
package cliconfig

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL         = "http://127.0.0.1:8000"
	defaultCachePath       = "sankofa.db"
	defaultHTTPTimeout     = 30 * time.Second
	defaultPollInterval    = 5 * time.Second
	defaultPollMaxAttempts = 12
)

// Config aggregates runtime settings for the CLI.
type Config struct {
	BaseURL         string
	CachePath       string
	HTTPTimeout     time.Duration
	PollInterval    time.Duration
	PollMaxAttempts int
}

// Validate ensures the configuration contains sane values, defaulting
// empties to the local backend address and bundled cache file.
func (cfg *Config) Validate() error {
	cfg.BaseURL = defaultIfEmpty(cfg.BaseURL, defaultBaseURL)
	cfg.CachePath = defaultIfEmpty(cfg.CachePath, defaultCachePath)
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollMaxAttempts < 1 {
		cfg.PollMaxAttempts = defaultPollMaxAttempts
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("base url %q is not a valid http address", cfg.BaseURL)
	}
	return nil
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
