package config

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Config holds the deploy-time configuration of the feed endpoint
type Config struct {
	// Feed configuration
	Handle          string        `long:"handle" env:"FEED_HANDLE" default:"cubsgulf" description:"Instagram handle whose posts are served"`
	BaseURL         string        `long:"base-url" env:"INSTAGRAM_BASE_URL" default:"https://www.instagram.com" description:"Upstream origin"`
	UserAgent       string        `long:"user-agent" env:"UPSTREAM_USER_AGENT" description:"Override the browser user agent sent upstream"`
	UpstreamTimeout time.Duration `long:"upstream-timeout" env:"UPSTREAM_TIMEOUT" default:"8s" description:"Deadline for each extraction strategy"`
	CacheControl    string        `long:"cache-control" env:"FEED_CACHE_CONTROL" default:"s-maxage=3600, stale-while-revalidate" description:"Cache-Control sent with live posts"`

	// Diagnostics
	DiagnosticsTable         string `long:"diagnostics-table" env:"DIAGNOSTICS_TABLE" description:"DynamoDB table for the extraction run log (optional)"`
	DiagnosticsBucket        string `long:"diagnostics-bucket" env:"DIAGNOSTICS_BUCKET" description:"S3 bucket for failed run reports (optional)"`
	DiagnosticsRetentionDays int    `long:"diagnostics-retention-days" env:"DIAGNOSTICS_RETENTION_DAYS" default:"14" description:"TTL for run log items in days"`

	// Local server
	Port  string `long:"port" env:"PORT" default:"8080" description:"HTTP port for the local dev server"`
	Debug bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses configuration from environment variables and command line arguments.
// It returns nil, nil when help was requested.
func Load(args []string) (*Config, error) {
	var cfg Config

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values that have no safe fallback
func (c *Config) Validate() error {
	if c.Handle == "" {
		return fmt.Errorf("handle is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %v", c.UpstreamTimeout)
	}
	if c.DiagnosticsRetentionDays < 0 {
		return fmt.Errorf("diagnostics retention must not be negative, got %d", c.DiagnosticsRetentionDays)
	}
	return nil
}

// DiagnosticsEnabled reports whether any diagnostic sink is configured
func (c *Config) DiagnosticsEnabled() bool {
	return c.DiagnosticsTable != "" || c.DiagnosticsBucket != ""
}
