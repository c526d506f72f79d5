package config

import (
	"errors"
	"fmt"
	"strings"

	"warden/internal/checker"
	"warden/internal/watch"
)

// Validate ensures the configuration is usable. Errors returned here are
// fatal: the process must not start with a broken enabled component.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateCheckers(); err != nil {
		return err
	}
	if err := c.validateChannels(); err != nil {
		return err
	}
	if err := c.validateActions(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WatchDir) == "" {
		return errors.New("paths.watch_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateCheckers() error {
	if len(c.Checkers) == 0 {
		return errors.New("at least one [[checkers]] entry must be configured")
	}
	builtins := checker.Builtins()
	seen := map[string]struct{}{}
	for i, cc := range c.Checkers {
		id := strings.TrimSpace(cc.ID)
		if id == "" {
			return fmt.Errorf("checkers[%d].id must be set", i)
		}
		if _, ok := builtins[id]; !ok {
			return fmt.Errorf("unknown checker id %q", cc.ID)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("checker %q configured twice", id)
		}
		seen[id] = struct{}{}
		for _, raw := range cc.Kinds {
			if _, err := watch.ParseKind(raw); err != nil {
				return fmt.Errorf("checker %q: %w", id, err)
			}
		}
	}
	return nil
}

func (c *Config) validateChannels() error {
	type channel struct {
		id          string
		enabled     bool
		minSeverity string
	}
	channels := []channel{
		{"ntfy", c.Channels.Ntfy.Enabled, c.Channels.Ntfy.MinSeverity},
		{"discord", c.Channels.Discord.Enabled, c.Channels.Discord.MinSeverity},
		{"teams", c.Channels.Teams.Enabled, c.Channels.Teams.MinSeverity},
		{"webhook", c.Channels.Webhook.Enabled, c.Channels.Webhook.MinSeverity},
		{"email", c.Channels.Email.Enabled, c.Channels.Email.MinSeverity},
	}
	for _, ch := range channels {
		if ch.minSeverity == "" {
			continue
		}
		if _, err := checker.ParseSeverity(ch.minSeverity); err != nil {
			return fmt.Errorf("channels.%s.min_severity: %w", ch.id, err)
		}
	}

	if c.Channels.Ntfy.Enabled && c.Channels.Ntfy.Topic == "" {
		return errors.New("channels.ntfy.topic must be set when channels.ntfy.enabled is true")
	}
	if c.Channels.Discord.Enabled && c.Channels.Discord.WebhookURL == "" {
		return errors.New("channels.discord.webhook_url must be set when channels.discord.enabled is true")
	}
	if c.Channels.Teams.Enabled && c.Channels.Teams.WebhookURL == "" {
		return errors.New("channels.teams.webhook_url must be set when channels.teams.enabled is true")
	}
	if c.Channels.Webhook.Enabled && c.Channels.Webhook.URL == "" {
		return errors.New("channels.webhook.url must be set when channels.webhook.enabled is true")
	}
	if c.Channels.Email.Enabled {
		if strings.TrimSpace(c.Channels.Email.SMTPHost) == "" {
			return errors.New("channels.email.smtp_host must be set when channels.email.enabled is true")
		}
		if strings.TrimSpace(c.Channels.Email.From) == "" {
			return errors.New("channels.email.from must be set when channels.email.enabled is true")
		}
		if len(c.Channels.Email.To) == 0 {
			return errors.New("channels.email.to must list at least one recipient when channels.email.enabled is true")
		}
	}
	return nil
}

func (c *Config) validateActions() error {
	if _, err := checker.ParseSeverity(c.Actions.Threshold); err != nil {
		return fmt.Errorf("actions.threshold: %w", err)
	}
	if c.Actions.GitHub.Enabled {
		if strings.TrimSpace(c.Actions.GitHub.Token) == "" {
			return errors.New("actions.github.token must be set when actions.github.enabled is true (or export WARDEN_GITHUB_TOKEN)")
		}
		repo := strings.TrimSpace(c.Actions.GitHub.Repo)
		if repo == "" || !strings.Contains(repo, "/") {
			return errors.New("actions.github.repo must be set as owner/name when actions.github.enabled is true")
		}
	}
	if c.Actions.GitLab.Enabled {
		if strings.TrimSpace(c.Actions.GitLab.Token) == "" {
			return errors.New("actions.gitlab.token must be set when actions.gitlab.enabled is true (or export WARDEN_GITLAB_TOKEN)")
		}
		if strings.TrimSpace(c.Actions.GitLab.ProjectID) == "" {
			return errors.New("actions.gitlab.project_id must be set when actions.gitlab.enabled is true")
		}
	}
	if c.Actions.Jira.Enabled {
		if strings.TrimSpace(c.Actions.Jira.BaseURL) == "" {
			return errors.New("actions.jira.base_url must be set when actions.jira.enabled is true")
		}
		if strings.TrimSpace(c.Actions.Jira.Email) == "" {
			return errors.New("actions.jira.email must be set when actions.jira.enabled is true")
		}
		if strings.TrimSpace(c.Actions.Jira.APIToken) == "" {
			return errors.New("actions.jira.api_token must be set when actions.jira.enabled is true (or export WARDEN_JIRA_TOKEN)")
		}
		if strings.TrimSpace(c.Actions.Jira.ProjectKey) == "" {
			return errors.New("actions.jira.project_key must be set when actions.jira.enabled is true")
		}
	}
	if c.Actions.Linear.Enabled {
		if strings.TrimSpace(c.Actions.Linear.APIKey) == "" {
			return errors.New("actions.linear.api_key must be set when actions.linear.enabled is true (or export WARDEN_LINEAR_API_KEY)")
		}
		if strings.TrimSpace(c.Actions.Linear.TeamID) == "" {
			return errors.New("actions.linear.team_id must be set when actions.linear.enabled is true")
		}
	}
	return nil
}
