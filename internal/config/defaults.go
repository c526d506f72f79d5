package config

const (
	defaultWatchDir           = "."
	defaultLogDir             = "~/.local/share/warden/logs"
	defaultStateDir           = "~/.local/share/warden/state"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultQuietPeriodMS      = 1000
	defaultMaxRestarts        = 50
	defaultQueueSize          = 256
	defaultCheckerTimeoutSecs = 120
	defaultMaxParallelChecks  = 4
	defaultChannelRetries     = 3
	defaultNtfyRequestTimeout = 10
	defaultActionThreshold    = "error"
	defaultRenotifyHours      = 1
	defaultGitHubAPIBase      = "https://api.github.com"
	defaultGitLabAPIBase      = "https://gitlab.com/api/v4"
	defaultLinearAPIBase      = "https://api.linear.app/graphql"
	defaultJiraIssueType      = "Task"
	defaultSMTPPort           = 587
)

// Default returns a Config populated with repository defaults. The
// default checker set mirrors the sample configuration: all built-in
// checkers enabled, fixing off.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir: defaultWatchDir,
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Watch: Watch{
			QuietPeriodMS: defaultQuietPeriodMS,
			MaxRestarts:   defaultMaxRestarts,
			QueueSize:     defaultQueueSize,
		},
		Dispatch: Dispatch{
			CheckerTimeoutSeconds: defaultCheckerTimeoutSecs,
			MaxParallelChecks:     defaultMaxParallelChecks,
		},
		Checkers: []Checker{
			{ID: "whitespace", Enabled: true},
			{ID: "secretscan", Enabled: true},
			{ID: "todos", Enabled: true},
		},
		Channels: Channels{
			Ntfy:    NtfyChannel{MinSeverity: "warning", RequestTimeout: defaultNtfyRequestTimeout, Retries: defaultChannelRetries},
			Discord: DiscordChannel{MinSeverity: "warning", Retries: defaultChannelRetries},
			Teams:   TeamsChannel{MinSeverity: "warning", Retries: defaultChannelRetries},
			Webhook: WebhookChannel{MinSeverity: "info", Retries: defaultChannelRetries},
			Email:   EmailChannel{MinSeverity: "error", SMTPPort: defaultSMTPPort, Retries: defaultChannelRetries},
		},
		Actions: Actions{
			Threshold:           defaultActionThreshold,
			RenotifyWindowHours: defaultRenotifyHours,
			GitHub:              GitHubIntegration{APIBase: defaultGitHubAPIBase, AutoCreateIssue: true},
			GitLab:              GitLabIntegration{APIBase: defaultGitLabAPIBase, AutoCreateIssue: true},
			Jira:                JiraIntegration{IssueType: defaultJiraIssueType, AutoCreateIssue: true},
			Linear:              LinearIntegration{APIBase: defaultLinearAPIBase, AutoCreateIssue: true},
		},
	}
}
