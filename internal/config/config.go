// Package config provides environment-sourced configuration for the
// AUTOCLAUDE daemon. All variables are prefixed with AUTOCLAUDE_.
package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/oklog/ulid/v2"
)

const namespace = "AUTOCLAUDE"

// processStart anchors the default instance identifier to this process's
// start time, so two daemons started at different times never collide.
var processStart = time.Now()

// Config holds all daemon settings. Interval and timeout fields are
// milliseconds on the wire; use the Duration accessors.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	PollIntervalMs   int `envconfig:"POLL_INTERVAL_MS" default:"10000"`
	MaxBackoffMs     int `envconfig:"MAX_BACKOFF_MS" default:"300000"`
	ClaimTimeoutMs   int `envconfig:"CLAIM_TIMEOUT_MS" default:"3600000"`
	ToolTimeoutMs    int `envconfig:"TOOL_TIMEOUT_MS" default:"600000"`
	ColumnCacheTTLMs int `envconfig:"COLUMN_CACHE_TTL_MS" default:"60000"`

	InstanceID         string `envconfig:"INSTANCE_ID"`
	WorkspaceRoot      string `envconfig:"WORKSPACE_ROOT"`
	MaxConcurrentTasks int    `envconfig:"MAX_CONCURRENT_TASKS" default:"1"`
	MaxRetryAttempts   int    `envconfig:"MAX_RETRY_ATTEMPTS" default:"3"`
	CleanupOnSuccess   bool   `envconfig:"CLEANUP_ON_SUCCESS" default:"true"`

	GitBinary     string `envconfig:"GIT_BINARY" default:"git"`
	GhBinary      string `envconfig:"GH_BINARY" default:"gh"`
	CodegenBinary string `envconfig:"CODEGEN_BINARY" default:"claude"`

	// GitHubToken enables PR lookup through the GitHub API when gh's own
	// output is unusable. Optional.
	GitHubToken string `envconfig:"GITHUB_TOKEN"`

	SlackWebhookURL     string `envconfig:"SLACK_WEBHOOK_URL"`
	DiscordWebhookID    string `envconfig:"DISCORD_WEBHOOK_ID"`
	DiscordWebhookToken string `envconfig:"DISCORD_WEBHOOK_TOKEN"`

	// DashboardAddr enables the read-only status HTTP server when set,
	// e.g. "127.0.0.1:8321".
	DashboardAddr string `envconfig:"DASHBOARD_ADDR"`

	// DigestCron is a 5-field cron expression for the notification digest,
	// e.g. "0 9 * * *". Empty disables the digest.
	DigestCron string `envconfig:"DIGEST_CRON"`
}

// Load reads configuration from the environment and returns a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(namespace, &cfg); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived values.
func (c *Config) applyDefaults() {
	if c.InstanceID == "" {
		c.InstanceID = defaultInstanceID()
	}
	if c.WorkspaceRoot == "" {
		c.WorkspaceRoot = filepath.Join(os.TempDir(), "autoclaude")
	}
}

// validate checks that all settings are present and consistent.
func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: database URL is required")
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("config: poll interval must be positive, got %d", c.PollIntervalMs)
	}
	if c.ClaimTimeoutMs <= 0 {
		return fmt.Errorf("config: claim timeout must be positive, got %d", c.ClaimTimeoutMs)
	}
	if c.MaxConcurrentTasks <= 0 {
		return fmt.Errorf("config: max concurrent tasks must be positive, got %d", c.MaxConcurrentTasks)
	}
	if c.MaxRetryAttempts <= 0 {
		return fmt.Errorf("config: max retry attempts must be positive, got %d", c.MaxRetryAttempts)
	}
	return nil
}

// defaultInstanceID derives an identifier from the process start time.
// ULIDs sort by timestamp, which makes lease attribution easy to eyeball.
func defaultInstanceID() string {
	id, err := ulid.New(ulid.Timestamp(processStart), rand.Reader)
	if err != nil {
		// rand.Reader failing means the platform is broken; fall back to
		// the raw start time so the daemon can still run.
		return fmt.Sprintf("autoclaude-%d", processStart.UnixNano())
	}
	return "autoclaude-" + id.String()
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// MaxBackoff returns the backoff ceiling as a duration.
func (c *Config) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffMs) * time.Millisecond
}

// ClaimTimeout returns the lease staleness threshold as a duration.
func (c *Config) ClaimTimeout() time.Duration {
	return time.Duration(c.ClaimTimeoutMs) * time.Millisecond
}

// ToolTimeout returns the per-invocation subprocess timeout as a duration.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutMs) * time.Millisecond
}

// ColumnCacheTTL returns the column role cache lifetime as a duration.
func (c *Config) ColumnCacheTTL() time.Duration {
	return time.Duration(c.ColumnCacheTTLMs) * time.Millisecond
}
