package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"alforqan/internal/api"
	"alforqan/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the render queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"stats"},
		Short:   "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(client *api.Client, store *queue.Store) error {
				var stats map[string]int
				if client != nil {
					status, err := client.Status(cmd.Context())
					if err != nil {
						return err
					}
					stats = status.Workflow.QueueStats
				} else {
					raw, err := store.Stats(cmd.Context())
					if err != nil {
						return err
					}
					stats = api.MergeQueueStats(raw)
				}

				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func buildQueueStatusRows(stats map[string]int) [][]string {
	statuses := make([]string, 0, len(stats))
	for status, count := range stats {
		if count > 0 {
			statuses = append(statuses, status)
		}
	}
	sort.Strings(statuses)

	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		rows = append(rows, []string{formatStatusLabel(status), strconv.Itoa(stats[status])})
	}
	return rows
}

func formatStatusLabel(status string) string {
	return strings.ReplaceAll(strings.TrimSpace(status), "_", " ")
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(client *api.Client, store *queue.Store) error {
				jobs, err := listJobs(cmd, client, store, listStatuses)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, map[string]any{"jobs": jobs})
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Title", "Verses", "Status", "Progress", "Created"},
					buildQueueListRows(jobs),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func listJobs(cmd *cobra.Command, client *api.Client, store *queue.Store, statusFilters []string) ([]api.QueueJob, error) {
	if client != nil {
		return client.QueueList(cmd.Context(), statusFilters)
	}

	var statuses []queue.Status
	for _, value := range statusFilters {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	jobs, err := store.List(cmd.Context(), statuses...)
	if err != nil {
		return nil, err
	}
	return api.SortJobsNewestFirst(api.FromJobs(jobs)), nil
}

func buildQueueListRows(jobs []api.QueueJob) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		verses := fmt.Sprintf("%d:%d", job.Surah, job.StartAyah)
		if job.EndAyah > job.StartAyah {
			verses = fmt.Sprintf("%d:%d-%d", job.Surah, job.StartAyah, job.EndAyah)
		}
		progress := ""
		if job.Progress.Stage != "" {
			progress = fmt.Sprintf("%s %.0f%%", job.Progress.Stage, job.Progress.Percent)
		}
		created := api.ParseQueueTime(job.CreatedAt)
		createdLabel := job.CreatedAt
		if !created.IsZero() {
			createdLabel = created.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			job.Title,
			verses,
			formatStatusLabel(job.Status),
			progress,
			createdLabel,
		})
	}
	return rows
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <jobID>",
		Short: "Show details for one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePositiveID(args[0])
			if err != nil {
				return err
			}
			return ctx.withQueue(cmd.Context(), func(client *api.Client, store *queue.Store) error {
				job, err := describeJob(cmd, client, store, id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", id)
				}
				if asJSON {
					return writeJSON(cmd, job)
				}
				printJobDetail(cmd, *job)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func describeJob(cmd *cobra.Command, client *api.Client, store *queue.Store, id int64) (*api.QueueJob, error) {
	if client != nil {
		return client.QueueDescribe(cmd.Context(), id)
	}
	job, err := store.GetByID(cmd.Context(), id)
	if err != nil || job == nil {
		return nil, err
	}
	converted := api.FromJob(job)
	return &converted, nil
}

func printJobDetail(cmd *cobra.Command, job api.QueueJob) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %d: %s\n", job.ID, job.Title)
	fmt.Fprintf(out, "  Verses:    %d:%d-%d\n", job.Surah, job.StartAyah, job.EndAyah)
	fmt.Fprintf(out, "  Reciter:   %s (id %d)\n", job.ReciterName, job.ReciterID)
	fmt.Fprintf(out, "  Status:    %s\n", formatStatusLabel(job.Status))
	if job.Progress.Stage != "" {
		fmt.Fprintf(out, "  Progress:  %s %.0f%% %s\n", job.Progress.Stage, job.Progress.Percent, job.Progress.Message)
	}
	if job.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error:     %s\n", job.ErrorMessage)
	}
	if job.AudioFile != "" {
		fmt.Fprintf(out, "  Audio:     %s\n", job.AudioFile)
	}
	if job.RenderedFile != "" {
		fmt.Fprintf(out, "  Rendered:  %s\n", job.RenderedFile)
	}
	if job.FinalFile != "" {
		fmt.Fprintf(out, "  Final:     %s\n", job.FinalFile)
	}
	fmt.Fprintf(out, "  Created:   %s\n", job.CreatedAt)
	fmt.Fprintf(out, "  Updated:   %s\n", job.UpdatedAt)
}

type sceneFlags struct {
	colorScheme string
	background  string
	quality     string
	aspectRatio string
	mode        string
}

func buildSceneOverrides(f sceneFlags) (json.RawMessage, error) {
	overrides := map[string]string{
		"color_scheme":     f.colorScheme,
		"background_style": f.background,
		"quality":          f.quality,
		"aspect_ratio":     f.aspectRatio,
		"mode":             f.mode,
	}
	payload := make(map[string]string, len(overrides))
	for key, value := range overrides {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			payload[key] = trimmed
		}
	}
	if len(payload) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var reciterID int
	var scene sceneFlags

	cmd := &cobra.Command{
		Use:   "add <surah> <startAyah> [endAyah]",
		Short: "Queue a verse range for rendering",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			surah, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid surah %q", args[0])
			}
			startAyah, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid ayah %q", args[1])
			}
			endAyah := startAyah
			if len(args) == 3 {
				endAyah, err = strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("invalid ayah %q", args[2])
				}
			}

			overrides, err := buildSceneOverrides(scene)
			if err != nil {
				return err
			}

			request := api.AddJobRequest{
				Surah:     surah,
				StartAyah: startAyah,
				EndAyah:   endAyah,
				ReciterID: reciterID,
				Scene:     overrides,
			}

			return ctx.withQueue(cmd.Context(), func(client *api.Client, store *queue.Store) error {
				job, err := addJob(cmd, ctx, client, store, request)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %d: %s\n", job.ID, job.Title)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&reciterID, "reciter", "r", 0, "Reciter ID (defaults to the configured reciter)")
	cmd.Flags().StringVar(&scene.colorScheme, "scheme", "", "Color scheme override")
	cmd.Flags().StringVar(&scene.background, "background", "", "Background style override")
	cmd.Flags().StringVar(&scene.quality, "quality", "", "Render quality override (low, medium, high, production)")
	cmd.Flags().StringVar(&scene.aspectRatio, "aspect", "", "Aspect ratio override (16:9, 9:16, 1:1)")
	cmd.Flags().StringVar(&scene.mode, "mode", "", "Render mode override (video or image)")
	return cmd
}

func addJob(cmd *cobra.Command, ctx *commandContext, client *api.Client, store *queue.Store, request api.AddJobRequest) (*api.QueueJob, error) {
	if client != nil {
		return client.QueueAdd(cmd.Context(), request)
	}
	if request.ReciterID == 0 {
		if cfg := ctx.configValue(); cfg != nil {
			request.ReciterID = cfg.Reciter.DefaultID
		}
	}
	return api.NewQueueService(store).Add(cmd.Context(), request)
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [jobID...]",
		Short: "Retry failed jobs",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}

			return ctx.withQueue(cmd.Context(), func(client *api.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					var updated int64
					var err error
					if client != nil {
						updated, err = client.QueueRetryAll(cmd.Context())
					} else {
						updated, err = store.RetryFailed(cmd.Context())
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Retried %d failed jobs\n", updated)
					return nil
				}

				for _, id := range ids {
					var updated int64
					var err error
					if client != nil {
						updated, err = client.QueueRetry(cmd.Context(), id)
					} else {
						updated, err = store.RetryFailed(cmd.Context(), id)
					}
					if err != nil {
						return err
					}
					if updated > 0 {
						fmt.Fprintf(out, "Job %d reset for retry\n", id)
					} else {
						fmt.Fprintf(out, "Job %d is not in failed state\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <jobID...>",
		Short: "Remove jobs from the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}

			return ctx.withQueue(cmd.Context(), func(client *api.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				for _, id := range ids {
					var removed bool
					var err error
					if client != nil {
						removed, err = client.QueueRemove(cmd.Context(), id)
					} else {
						removed, err = store.Remove(cmd.Context(), id)
					}
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Job %d removed\n", id)
					} else {
						fmt.Fprintf(out, "Job %d not found\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}

			mode := api.ClearAll
			label := "queue jobs"
			switch {
			case clearCompleted:
				mode = api.ClearCompleted
				label = "completed jobs"
			case clearFailed:
				mode = api.ClearFailed
				label = "failed jobs"
			}

			return ctx.withQueue(cmd.Context(), func(client *api.Client, store *queue.Store) error {
				var removed int64
				var err error
				if client != nil {
					removed, err = client.QueueClear(cmd.Context(), mode)
				} else {
					removed, err = api.NewQueueService(store).Clear(cmd.Context(), mode)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed jobs")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(client *api.Client, store *queue.Store) error {
				var health queue.HealthSummary
				var err error
				if client != nil {
					health, err = client.QueueHealth(cmd.Context())
				} else {
					health, err = store.Health(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nPending: %d\nProcessing: %d\nFailed: %d\nCompleted: %d\n",
					health.Total,
					health.Pending,
					health.Processing,
					health.Failed,
					health.Completed,
				)
				return nil
			})
		},
	}
}

func parsePositiveID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", arg)
	}
	return id, nil
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parsePositiveID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
