package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"warden/internal/actions"
	"warden/internal/checker"
	"warden/internal/dispatch"
	"warden/internal/notify"
	"warden/internal/scan"
	"warden/internal/watch"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		diff           bool
		since          string
		reportOnly     bool
		failOnCritical bool
		jsonOutput     bool
	)

	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Run all checkers over a directory once",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			root := cfg.Paths.WatchDir
			if len(args) == 1 {
				root = args[0]
			}

			logger, err := newLoggerFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			instances, err := cfg.CheckerConfigs()
			if err != nil {
				return fmt.Errorf("configure checkers: %w", err)
			}
			registry, err := checker.NewRegistry(checker.Builtins(), instances)
			if err != nil {
				return fmt.Errorf("build checker registry: %w", err)
			}

			// Batch reports flow through the same routers as watch-mode
			// reports: a critical finding in a scan still notifies and
			// still opens tracker actions.
			channels, err := notify.BuildChannels(cfg)
			if err != nil {
				return fmt.Errorf("build notification channels: %w", err)
			}
			notifyRouter := notify.NewRouter(channels, logger)
			defer notifyRouter.Close()

			sinks := []dispatch.Sink{notifyRouter}
			if integrations := actions.BuildIntegrations(cfg); len(integrations) > 0 {
				store, err := actions.Open(cfg)
				if err != nil {
					return fmt.Errorf("open action store: %w", err)
				}
				defer store.Close()
				actionRouter := actions.NewRouter(cfg, store, integrations, logger)
				defer actionRouter.Close()
				sinks = append(sinks, actionRouter)
			}

			dispatcher, err := dispatch.New(dispatch.Options{
				Registry:          registry,
				Generations:       dispatch.StaticGenerations(),
				Sinks:             sinks,
				Logger:            logger,
				CheckerTimeout:    cfg.CheckerTimeout(),
				RunTimeout:        cfg.RunTimeout(),
				MaxParallelChecks: cfg.Dispatch.MaxParallelChecks,
				ReportOnly:        reportOnly,
			})
			if err != nil {
				return fmt.Errorf("build dispatcher: %w", err)
			}

			scanner, err := scan.New(scan.Options{
				Root:       root,
				Diff:       diff,
				Since:      since,
				Ignorer:    watch.NewIgnorer(cfg.Watch.Ignore),
				Dispatcher: dispatcher,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			summary, err := scanner.Run(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := printSummaryJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				printSummary(cmd, root, summary)
			}

			if failOnCritical && summary.HasAtOrAbove(checker.SeverityCritical) {
				return &exitError{code: 2, err: fmt.Errorf("critical findings detected")}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&diff, "diff", false, "Scan only files changed in git")
	cmd.Flags().StringVar(&since, "since", "", "Git time window for --diff (e.g. \"2 hours ago\")")
	cmd.Flags().BoolVar(&reportOnly, "report-only", false, "Report findings without applying fixes")
	cmd.Flags().BoolVar(&failOnCritical, "fail-on-critical", false, "Exit nonzero when critical findings are present")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the summary as JSON")
	return cmd
}

func printSummaryJSON(cmd *cobra.Command, summary *scan.Summary) error {
	findings := make(map[string]int, len(summary.Findings))
	for sev, n := range summary.Findings {
		findings[sev.String()] = n
	}
	payload := map[string]any{
		"files_scanned":       summary.FilesScanned,
		"files_with_findings": summary.FilesWithFindings,
		"findings":            findings,
		"fixes_applied":       summary.FixesApplied,
		"duration_ms":         summary.Duration.Milliseconds(),
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func printSummary(cmd *cobra.Command, root string, summary *scan.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanned %s: %d file(s), %d finding(s)", root, summary.FilesScanned, summary.TotalFindings())
	if summary.FixesApplied > 0 {
		fmt.Fprintf(out, ", %d fix(es) applied", summary.FixesApplied)
	}
	fmt.Fprintf(out, " in %s\n", summary.Duration.Round(time.Millisecond))

	if summary.TotalFindings() == 0 {
		return
	}

	rows := make([][2]string, 0, len(checker.Severities()))
	for _, sev := range checker.Severities() {
		if n := summary.Findings[sev]; n > 0 {
			rows = append(rows, [2]string{sev.String(), fmt.Sprintf("%d", n)})
		}
	}

	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(out, severityTable(rows))
		return
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%s: %s\n", row[0], row[1])
	}
}
