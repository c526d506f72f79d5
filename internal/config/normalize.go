package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeWatch()
	c.normalizeDispatch()
	c.normalizeChannels()
	c.normalizeActions()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WatchDir, err = ExpandPath(c.Paths.WatchDir); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeWatch() {
	if c.Watch.QuietPeriodMS <= 0 {
		c.Watch.QuietPeriodMS = defaultQuietPeriodMS
	}
	if c.Watch.MaxRestarts <= 0 {
		c.Watch.MaxRestarts = defaultMaxRestarts
	}
	if c.Watch.QueueSize <= 0 {
		c.Watch.QueueSize = defaultQueueSize
	}
}

func (c *Config) normalizeDispatch() {
	if c.Dispatch.CheckerTimeoutSeconds <= 0 {
		c.Dispatch.CheckerTimeoutSeconds = defaultCheckerTimeoutSecs
	}
	if c.Dispatch.MaxParallelChecks <= 0 {
		c.Dispatch.MaxParallelChecks = defaultMaxParallelChecks
	}
}

func (c *Config) normalizeChannels() {
	c.Channels.Ntfy.Topic = strings.TrimSpace(c.Channels.Ntfy.Topic)
	c.Channels.Discord.WebhookURL = strings.TrimSpace(c.Channels.Discord.WebhookURL)
	c.Channels.Teams.WebhookURL = strings.TrimSpace(c.Channels.Teams.WebhookURL)
	c.Channels.Webhook.URL = strings.TrimSpace(c.Channels.Webhook.URL)
	if c.Channels.Ntfy.RequestTimeout <= 0 {
		c.Channels.Ntfy.RequestTimeout = defaultNtfyRequestTimeout
	}
	if c.Channels.Email.SMTPPort <= 0 {
		c.Channels.Email.SMTPPort = defaultSMTPPort
	}
	for _, retries := range []*int{
		&c.Channels.Ntfy.Retries,
		&c.Channels.Discord.Retries,
		&c.Channels.Teams.Retries,
		&c.Channels.Webhook.Retries,
		&c.Channels.Email.Retries,
	} {
		if *retries <= 0 {
			*retries = defaultChannelRetries
		}
	}
}

func (c *Config) normalizeActions() {
	if strings.TrimSpace(c.Actions.Threshold) == "" {
		c.Actions.Threshold = defaultActionThreshold
	}
	if c.Actions.RenotifyWindowHours <= 0 {
		c.Actions.RenotifyWindowHours = defaultRenotifyHours
	}
	if strings.TrimSpace(c.Actions.GitHub.APIBase) == "" {
		c.Actions.GitHub.APIBase = defaultGitHubAPIBase
	}
	if strings.TrimSpace(c.Actions.GitLab.APIBase) == "" {
		c.Actions.GitLab.APIBase = defaultGitLabAPIBase
	}
	if c.Actions.GitHub.Token == "" {
		if value, ok := os.LookupEnv("WARDEN_GITHUB_TOKEN"); ok {
			c.Actions.GitHub.Token = value
		}
	}
	if c.Actions.GitLab.Token == "" {
		if value, ok := os.LookupEnv("WARDEN_GITLAB_TOKEN"); ok {
			c.Actions.GitLab.Token = value
		}
	}
	if strings.TrimSpace(c.Actions.Jira.IssueType) == "" {
		c.Actions.Jira.IssueType = defaultJiraIssueType
	}
	if c.Actions.Jira.APIToken == "" {
		if value, ok := os.LookupEnv("WARDEN_JIRA_TOKEN"); ok {
			c.Actions.Jira.APIToken = value
		}
	}
	if strings.TrimSpace(c.Actions.Linear.APIBase) == "" {
		c.Actions.Linear.APIBase = defaultLinearAPIBase
	}
	if c.Actions.Linear.APIKey == "" {
		if value, ok := os.LookupEnv("WARDEN_LINEAR_API_KEY"); ok {
			c.Actions.Linear.APIKey = value
		}
	}
}
