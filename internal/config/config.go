package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"warden/internal/checker"
	"warden/internal/faults"
	"warden/internal/watch"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WatchDir string `toml:"watch_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Watch contains debounce and event-queue tuning.
type Watch struct {
	QuietPeriodMS int      `toml:"quiet_period_ms"`
	MaxRestarts   int      `toml:"max_restarts"`
	QueueSize     int      `toml:"queue_size"`
	Ignore        []string `toml:"ignore"`
}

// Dispatch contains orchestrator tuning.
type Dispatch struct {
	CheckerTimeoutSeconds int  `toml:"checker_timeout_seconds"`
	RunTimeoutSeconds     int  `toml:"run_timeout_seconds"`
	MaxParallelChecks     int  `toml:"max_parallel_checks"`
	EmitEmptyReports      bool `toml:"emit_empty_reports"`
}

// Checker configures one registered checker instance. Order in the
// configuration file is the order fix-capable checkers execute in.
type Checker struct {
	ID         string            `toml:"id"`
	Enabled    bool              `toml:"enabled"`
	Extensions []string          `toml:"extensions"`
	Kinds      []string          `toml:"kinds"`
	AutoFix    bool              `toml:"auto_fix"`
	Settings   map[string]string `toml:"settings"`
}

// NtfyChannel configures push notifications via an ntfy topic.
type NtfyChannel struct {
	Enabled        bool   `toml:"enabled"`
	MinSeverity    string `toml:"min_severity"`
	Topic          string `toml:"topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Retries        int    `toml:"retries"`
}

// DiscordChannel configures a Discord webhook channel.
type DiscordChannel struct {
	Enabled     bool   `toml:"enabled"`
	MinSeverity string `toml:"min_severity"`
	WebhookURL  string `toml:"webhook_url"`
	Retries     int    `toml:"retries"`
}

// TeamsChannel configures a Microsoft Teams webhook channel.
type TeamsChannel struct {
	Enabled     bool   `toml:"enabled"`
	MinSeverity string `toml:"min_severity"`
	WebhookURL  string `toml:"webhook_url"`
	Retries     int    `toml:"retries"`
}

// WebhookChannel configures a generic JSON webhook channel.
type WebhookChannel struct {
	Enabled     bool   `toml:"enabled"`
	MinSeverity string `toml:"min_severity"`
	URL         string `toml:"url"`
	AuthToken   string `toml:"auth_token"`
	Retries     int    `toml:"retries"`
}

// EmailChannel configures SMTP delivery of report digests.
type EmailChannel struct {
	Enabled     bool     `toml:"enabled"`
	MinSeverity string   `toml:"min_severity"`
	SMTPHost    string   `toml:"smtp_host"`
	SMTPPort    int      `toml:"smtp_port"`
	From        string   `toml:"from"`
	To          []string `toml:"to"`
	Username    string   `toml:"username"`
	Password    string   `toml:"password"`
	Retries     int      `toml:"retries"`
}

// Channels groups the notification channel adapters.
type Channels struct {
	Ntfy    NtfyChannel    `toml:"ntfy"`
	Discord DiscordChannel `toml:"discord"`
	Teams   TeamsChannel   `toml:"teams"`
	Webhook WebhookChannel `toml:"webhook"`
	Email   EmailChannel   `toml:"email"`
}

// GitHubIntegration configures issue creation on GitHub.
type GitHubIntegration struct {
	Enabled         bool   `toml:"enabled"`
	AutoCreateIssue bool   `toml:"auto_create_issue"`
	APIBase         string `toml:"api_base"`
	Token           string `toml:"token"`
	Repo            string `toml:"repo"`
}

// GitLabIntegration configures issue creation on GitLab.
type GitLabIntegration struct {
	Enabled         bool   `toml:"enabled"`
	AutoCreateIssue bool   `toml:"auto_create_issue"`
	APIBase         string `toml:"api_base"`
	Token           string `toml:"token"`
	ProjectID       string `toml:"project_id"`
}

// JiraIntegration configures issue creation on a Jira site.
type JiraIntegration struct {
	Enabled         bool   `toml:"enabled"`
	AutoCreateIssue bool   `toml:"auto_create_issue"`
	BaseURL         string `toml:"base_url"`
	Email           string `toml:"email"`
	APIToken        string `toml:"api_token"`
	ProjectKey      string `toml:"project_key"`
	IssueType       string `toml:"issue_type"`
}

// LinearIntegration configures issue creation via the Linear GraphQL API.
type LinearIntegration struct {
	Enabled         bool   `toml:"enabled"`
	AutoCreateIssue bool   `toml:"auto_create_issue"`
	APIBase         string `toml:"api_base"`
	APIKey          string `toml:"api_key"`
	TeamID          string `toml:"team_id"`
}

// Actions contains integration routing configuration.
type Actions struct {
	Threshold           string            `toml:"threshold"`
	RenotifyWindowHours int               `toml:"renotify_window_hours"`
	GitHub              GitHubIntegration `toml:"github"`
	GitLab              GitLabIntegration `toml:"gitlab"`
	Jira                JiraIntegration   `toml:"jira"`
	Linear              LinearIntegration `toml:"linear"`
}

// Config encapsulates all configuration values for warden.
//
// Configuration sections by subsystem:
//   - Paths: watched directory plus log and state locations
//   - Logging: log format and level
//   - Watch: debounce window, restart cap, queue bound, ignore patterns
//   - Dispatch: checker timeouts and parallelism
//   - Checkers: ordered checker instances
//   - Channels: notification channel adapters
//   - Actions: integration thresholds and tracker credentials
type Config struct {
	Paths    Paths     `toml:"paths"`
	Logging  Logging   `toml:"logging"`
	Watch    Watch     `toml:"watch"`
	Dispatch Dispatch  `toml:"dispatch"`
	Checkers []Checker `toml:"checkers"`
	Channels Channels  `toml:"channels"`
	Actions  Actions   `toml:"actions"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/warden/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file.
// Unknown keys are returned as warnings rather than errors; anything that
// would make an enabled component unusable is a fatal error.
func Load(path string) (*Config, string, []string, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", nil, err
	}

	var warnings []string
	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", nil, fmt.Errorf("parse config: %w", err)
		}
		warnings = collectUnknownKeyWarnings(data)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", nil, fmt.Errorf("%w: %w", faults.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", nil, fmt.Errorf("%w: %w", faults.ErrConfiguration, err)
	}

	return &cfg, resolvedPath, warnings, nil
}

// collectUnknownKeyWarnings re-decodes strictly into a scratch value so
// unrecognized keys surface as warnings without failing startup.
func collectUnknownKeyWarnings(data []byte) []string {
	var scratch Config
	decoder := toml.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(&scratch)
	if err == nil {
		return nil
	}
	var strict *toml.StrictMissingError
	if !errors.As(err, &strict) {
		return nil
	}
	warnings := make([]string, 0, len(strict.Errors))
	for _, derr := range strict.Errors {
		warnings = append(warnings, fmt.Sprintf("unknown configuration key %q", strings.Join(derr.Key(), ".")))
	}
	return warnings
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("warden.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return abs, nil
}

// EnsureDirectories creates the log and state directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Sample returns the embedded sample configuration document.
func Sample() string {
	return sampleConfig
}

// QuietPeriod returns the debounce window as a duration.
func (c *Config) QuietPeriod() time.Duration {
	return time.Duration(c.Watch.QuietPeriodMS) * time.Millisecond
}

// CheckerTimeout returns the per-checker invocation timeout.
func (c *Config) CheckerTimeout() time.Duration {
	return time.Duration(c.Dispatch.CheckerTimeoutSeconds) * time.Second
}

// RunTimeout returns the optional overall run timeout; zero disables it.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.Dispatch.RunTimeoutSeconds) * time.Second
}

// RenotifyWindow returns how long a created action suppresses duplicates.
func (c *Config) RenotifyWindow() time.Duration {
	return time.Duration(c.Actions.RenotifyWindowHours) * time.Hour
}

// ActionThreshold returns the minimum severity that triggers integration actions.
func (c *Config) ActionThreshold() checker.Severity {
	sev, err := checker.ParseSeverity(c.Actions.Threshold)
	if err != nil {
		return checker.SeverityError
	}
	return sev
}

// CheckerConfigs converts the configured checker list into registry
// instance configurations, parsing event kinds.
func (c *Config) CheckerConfigs() ([]checker.InstanceConfig, error) {
	configs := make([]checker.InstanceConfig, 0, len(c.Checkers))
	for _, cc := range c.Checkers {
		kinds := make([]watch.Kind, 0, len(cc.Kinds))
		for _, raw := range cc.Kinds {
			kind, err := watch.ParseKind(raw)
			if err != nil {
				return nil, fmt.Errorf("checker %q: %w", cc.ID, err)
			}
			kinds = append(kinds, kind)
		}
		configs = append(configs, checker.InstanceConfig{
			ID:      cc.ID,
			Enabled: cc.Enabled,
			Options: checker.Options{
				Extensions: cc.Extensions,
				Kinds:      kinds,
				AutoFix:    cc.AutoFix,
				Settings:   cc.Settings,
			},
		})
	}
	return configs, nil
}
