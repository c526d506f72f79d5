package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"warden/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running daemon's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return fmt.Errorf("fetch status: %w", err)
				}
				pairs := [][2]string{
					{"Running", yesNo(status.Running)},
					{"PID", fmt.Sprintf("%d", status.PID)},
					{"Uptime", formatUptime(status.StartedAt)},
					{"Watching", status.WatchDir},
					{"Queue depth", fmt.Sprintf("%d", status.QueueDepth)},
					{"Events seen", fmt.Sprintf("%d", status.EventsSeen)},
					{"Reports emitted", fmt.Sprintf("%d", status.ReportsEmitted)},
					{"Lock file", status.LockPath},
				}
				fmt.Fprintln(cmd.OutOrStdout(), kvTable(pairs))
				return nil
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return fmt.Errorf("stop daemon: %w", err)
				}
				if resp.Stopped {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopping")
				}
				return nil
			})
		},
	}
}

func formatUptime(startedAt time.Time) string {
	if startedAt.IsZero() {
		return "-"
	}
	return time.Since(startedAt).Round(time.Second).String()
}
