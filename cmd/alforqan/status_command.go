package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"alforqan/internal/api"
	"alforqan/internal/config"
	"alforqan/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			client, err := ctx.dialDaemon(cmd.Context())
			if err != nil {
				return err
			}

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			var daemonStatus *api.DaemonStatus
			if client != nil {
				daemonStatus, err = client.Status(cmd.Context())
				if err != nil {
					return err
				}
			}
			printDaemonLines(stdout, ctx, daemonStatus, colorize)
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range dependencyLines(cfg, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Paths", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range pathLines(cfg, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Queue", colorize) {
				fmt.Fprintln(stdout, line)
			}
			stats, err := queueStats(cmd, client, cfg, daemonStatus)
			if err != nil {
				return err
			}
			rows := buildQueueStatusRows(stats)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "Queue is empty")
				return nil
			}
			table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
			fmt.Fprintln(stdout, table)
			return nil
		},
	}
}

func printDaemonLines(stdout io.Writer, ctx *commandContext, status *api.DaemonStatus, colorize bool) {
	if status == nil {
		detail := "not reachable"
		if addr := ctx.apiAddress(); addr != "" {
			detail = fmt.Sprintf("not reachable at %s; start it with `alforqand`", addr)
		}
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, detail, colorize))
		return
	}

	fmt.Fprintln(stdout, renderStatusLine("Daemon", boolKind(status.Running), fmt.Sprintf("running (pid %d)", status.PID), colorize))
	workflowDetail := "idle"
	if status.Workflow.Running {
		workflowDetail = "processing"
	}
	fmt.Fprintln(stdout, renderStatusLine("Workflow", statusOK, workflowDetail, colorize))
	if status.Workflow.LastError != "" {
		fmt.Fprintln(stdout, renderStatusLine("Last error", statusError, status.Workflow.LastError, colorize))
	}
	for _, health := range status.Workflow.StageHealth {
		kind := statusOK
		detail := health.Detail
		if !health.Ready {
			kind = statusError
		} else if detail == "" {
			detail = "Ready"
		}
		fmt.Fprintln(stdout, renderStatusLine("Stage "+health.Name, kind, detail, colorize))
	}
}

func dependencyLines(cfg *config.Config, colorize bool) []string {
	lines := make([]string, 0, 4)
	for _, dep := range []struct {
		label  string
		binary string
	}{
		{"ffmpeg", cfg.FFmpegBinary()},
		{"ffprobe", cfg.FFprobeBinary()},
	} {
		if path, err := exec.LookPath(dep.binary); err == nil {
			lines = append(lines, renderStatusLine(dep.label, statusOK, fmt.Sprintf("Ready (command: %s)", path), colorize))
		} else {
			lines = append(lines, renderStatusLine(dep.label, statusError, "not found on PATH", colorize))
		}
	}

	for _, font := range []struct {
		label string
		path  string
	}{
		{"Verse font", cfg.Fonts.VerseFont},
		{"Info font", cfg.Fonts.InfoFont},
	} {
		if font.path == "" {
			lines = append(lines, renderStatusLine(font.label, statusWarn, "not configured; render uses the ffmpeg default", colorize))
			continue
		}
		if _, err := os.Stat(font.path); err == nil {
			lines = append(lines, renderStatusLine(font.label, statusOK, font.path, colorize))
		} else {
			lines = append(lines, renderStatusLine(font.label, statusError, fmt.Sprintf("missing: %s", font.path), colorize))
		}
	}
	return lines
}

func pathLines(cfg *config.Config, colorize bool) []string {
	paths := []struct {
		label string
		value string
	}{
		{"Staging", cfg.Paths.StagingDir},
		{"Gallery", cfg.Paths.OutputDir},
		{"Audio cache", cfg.Paths.AudioCacheDir},
		{"Logs", cfg.Paths.LogDir},
		{"Dataset", cfg.Paths.DataFile},
	}
	lines := make([]string, 0, len(paths))
	for _, entry := range paths {
		if entry.value == "" {
			lines = append(lines, renderStatusLine(entry.label, statusWarn, "not configured", colorize))
			continue
		}
		if _, err := os.Stat(entry.value); err == nil {
			lines = append(lines, renderStatusLine(entry.label, statusOK, entry.value, colorize))
		} else {
			lines = append(lines, renderStatusLine(entry.label, statusWarn, fmt.Sprintf("missing: %s", entry.value), colorize))
		}
	}
	return lines
}

func queueStats(cmd *cobra.Command, client *api.Client, cfg *config.Config, daemonStatus *api.DaemonStatus) (map[string]int, error) {
	if client != nil && daemonStatus != nil {
		return daemonStatus.Workflow.QueueStats, nil
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	raw, err := store.Stats(cmd.Context())
	if err != nil {
		return nil, err
	}
	return api.MergeQueueStats(raw), nil
}
