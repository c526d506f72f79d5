package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"warden/internal/actions"
	"warden/internal/checker"
	"warden/internal/config"
	"warden/internal/daemon"
	"warden/internal/dispatch"
	"warden/internal/ipc"
	"warden/internal/notify"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var reportOnly bool

	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Watch a directory and run checkers on changes",
		Args:  cobra.MaximumNArgs(1),
		Long: "Watch runs in the foreground: it monitors the configured directory\n" +
			"(or the one given as an argument), debounces change bursts, and\n" +
			"dispatches stabilized events to the configured checkers. Stop it\n" +
			"with Ctrl-C or `warden stop`.",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if len(args) == 1 {
				dir, err := config.ExpandPath(args[0])
				if err != nil {
					return fmt.Errorf("resolve directory: %w", err)
				}
				cfg.Paths.WatchDir = dir
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
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

			d, err := daemon.New(daemon.Options{
				Config:     cfg,
				Logger:     logger,
				Registry:   registry,
				Sinks:      sinks,
				ReportOnly: reportOnly,
			})
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			ipcServer, err := ipc.NewServer(signalCtx, ctx.socketPath(), d, cancel, logger)
			if err != nil {
				return fmt.Errorf("start IPC server: %w", err)
			}
			defer ipcServer.Close()
			ipcServer.Serve()

			if err := d.Start(signalCtx); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "warden watching %s (checkers: %d)\n", cfg.Paths.WatchDir, len(registry.IDs()))
			<-signalCtx.Done()
			logger.Info("warden shutting down")
			return nil
		},
	}

	cmd.Flags().BoolVar(&reportOnly, "report-only", false, "Report findings without applying fixes")
	return cmd
}
