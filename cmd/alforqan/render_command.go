package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"alforqan/internal/api"
	"alforqan/internal/audioprep"
	"alforqan/internal/logging"
	"alforqan/internal/organizer"
	"alforqan/internal/queue"
	"alforqan/internal/rendering"
	"alforqan/internal/versefetch"
	"alforqan/internal/workflow"
)

const renderPollInterval = 500 * time.Millisecond

// newRenderCommand queues one verse range and waits for it to finish. When no
// daemon is reachable the pipeline runs inside this process.
func newRenderCommand(ctx *commandContext) *cobra.Command {
	var reciterID int
	var scene sceneFlags
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "render <surah> <startAyah> [endAyah]",
		Short: "Render a verse range and wait for the result",
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

			runCtx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, timeout)
				defer cancel()
			}

			client, err := ctx.dialDaemon(runCtx)
			if err != nil {
				return err
			}
			if client != nil {
				return renderViaDaemon(runCtx, cmd, client, request)
			}
			return renderLocally(runCtx, cmd, ctx, request)
		},
	}

	cmd.Flags().IntVarP(&reciterID, "reciter", "r", 0, "Reciter ID (defaults to the configured reciter)")
	cmd.Flags().StringVar(&scene.colorScheme, "scheme", "", "Color scheme override")
	cmd.Flags().StringVar(&scene.background, "background", "", "Background style override")
	cmd.Flags().StringVar(&scene.quality, "quality", "", "Render quality override (low, medium, high, production)")
	cmd.Flags().StringVar(&scene.aspectRatio, "aspect", "", "Aspect ratio override (16:9, 9:16, 1:1)")
	cmd.Flags().StringVar(&scene.mode, "mode", "", "Render mode override (video or image)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "Abort if the render takes longer than this")
	return cmd
}

func renderViaDaemon(runCtx context.Context, cmd *cobra.Command, client *api.Client, request api.AddJobRequest) error {
	job, err := client.QueueAdd(runCtx, request)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Queued job %d: %s\n", job.ID, job.Title)

	lastProgress := ""
	for {
		current, err := client.QueueDescribe(runCtx, job.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("job %d disappeared from the queue", job.ID)
		}
		printProgressChange(out, current.Progress, &lastProgress)
		if done, err := finishedJob(out, current.Status, current.ErrorMessage, current.FinalFile); done {
			return err
		}
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case <-time.After(renderPollInterval):
		}
	}
}

func renderLocally(runCtx context.Context, cmd *cobra.Command, ctx *commandContext, request api.AddJobRequest) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:            "warn",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fetcher, err := versefetch.NewFetcher(cfg, store, logger)
	if err != nil {
		return err
	}
	renderer, err := rendering.NewRenderer(cfg, store, logger)
	if err != nil {
		return err
	}

	manager := workflow.NewManager(cfg, store, logger)
	manager.ConfigureStages(workflow.StageSet{
		VerseFetcher:  fetcher,
		AudioPreparer: audioprep.NewPreparer(cfg, store, logger),
		Renderer:      renderer,
		Organizer:     organizer.NewOrganizer(cfg, store, logger),
	})

	if request.ReciterID == 0 {
		request.ReciterID = cfg.Reciter.DefaultID
	}
	job, err := api.NewQueueService(store).Add(runCtx, request)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Queued job %d: %s\n", job.ID, job.Title)

	if err := manager.Start(runCtx); err != nil {
		return err
	}
	defer manager.Stop()

	lastProgress := ""
	for {
		current, err := store.GetByID(runCtx, job.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("job %d disappeared from the queue", job.ID)
		}
		converted := api.FromJob(current)
		printProgressChange(out, converted.Progress, &lastProgress)
		if done, err := finishedJob(out, converted.Status, converted.ErrorMessage, converted.FinalFile); done {
			return err
		}
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case <-time.After(renderPollInterval):
		}
	}
}

func printProgressChange(out io.Writer, progress api.QueueProgress, last *string) {
	if progress.Stage == "" {
		return
	}
	line := fmt.Sprintf("  %s %.0f%% %s", progress.Stage, progress.Percent, progress.Message)
	if line == *last {
		return
	}
	*last = line
	fmt.Fprintln(out, line)
}

func finishedJob(out io.Writer, status, errorMessage, finalFile string) (bool, error) {
	switch queue.Status(status) {
	case queue.StatusCompleted:
		fmt.Fprintf(out, "Completed: %s\n", finalFile)
		return true, nil
	case queue.StatusFailed:
		if errorMessage == "" {
			errorMessage = "render failed"
		}
		return true, fmt.Errorf("render failed: %s", errorMessage)
	default:
		return false, nil
	}
}
