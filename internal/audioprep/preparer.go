package audioprep

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"log/slog"

	"alforqan/internal/audio"
	"alforqan/internal/config"
	"alforqan/internal/logging"
	"alforqan/internal/queue"
	"alforqan/internal/reciters"
	"alforqan/internal/services"
	"alforqan/internal/stage"
	"alforqan/internal/versefetch"
)

// ClipProcessor covers the audio.Processor surface the stage drives.
type ClipProcessor interface {
	Prepare(ctx context.Context, inputs []string, workDir string) ([]string, error)
	Merge(ctx context.Context, inputs []string, output string) (audio.MergeResult, error)
}

// Preparer normalizes, trims, and merges the fetched recitation clips into
// the single track the renderer muxes.
type Preparer struct {
	cfg       *config.Config
	store     *queue.Store
	logger    *slog.Logger
	processor ClipProcessor
	reciters  versefetch.ReciterSource
}

// ResolveSettings picks the processing settings for a config: a named
// preset when one is configured, the raw audio section otherwise.
func ResolveSettings(cfg *config.Config) audio.Settings {
	if name := strings.TrimSpace(cfg.Audio.Preset); name != "" {
		if preset, ok := audio.Preset(name); ok {
			return preset
		}
	}
	return audio.SettingsFromConfig(cfg)
}

// NewPreparer constructs the audio preparation stage handler.
func NewPreparer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Preparer {
	breaker := reciters.NewHTTPBreaker("everyayah-catalog")
	client := reciters.NewClient(cfg, breaker, logger)
	processor := audio.NewProcessor(cfg, ResolveSettings(cfg), logger)
	return NewPreparerWithDependencies(cfg, store, logger, processor, client)
}

// NewPreparerWithDependencies allows injecting collaborators (used in tests).
func NewPreparerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, processor ClipProcessor, source versefetch.ReciterSource) *Preparer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "audio-prep"))
	}
	return &Preparer{cfg: cfg, store: store, logger: stageLogger, processor: processor, reciters: source}
}

func (p *Preparer) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, p.logger)

	reciter, err := p.reciters.Reciter(ctx, job.ReciterID)
	if err != nil {
		return services.Wrap(services.ErrValidation, "audio-prep", "resolve reciter",
			fmt.Sprintf("Unknown reciter id %d", job.ReciterID), err)
	}
	clips := versefetch.ClipPaths(p.cfg, reciter, job.Surah, job.StartAyah, job.EndAyah)
	for _, clip := range clips {
		info, statErr := os.Stat(clip)
		if statErr != nil || info.Size() == 0 {
			return services.Wrap(services.ErrValidation, "audio-prep", "validate clips",
				fmt.Sprintf("Clip %s missing from the audio cache; rerun the fetch stage", filepath.Base(clip)), statErr)
		}
	}

	job.ProgressMessage = fmt.Sprintf("Preparing %d clip(s)", len(clips))
	job.ProgressPercent = 0
	logger.Info(
		"starting audio preparation",
		logging.Int("clip_count", len(clips)),
		logging.String("reciter", reciter.Name),
	)
	return nil
}

func (p *Preparer) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, p.logger)

	reciter, err := p.reciters.Reciter(ctx, job.ReciterID)
	if err != nil {
		return services.Wrap(services.ErrValidation, "audio-prep", "resolve reciter",
			fmt.Sprintf("Unknown reciter id %d", job.ReciterID), err)
	}
	clips := versefetch.ClipPaths(p.cfg, reciter, job.Surah, job.StartAyah, job.EndAyah)

	workDir := JobWorkDir(p.cfg, job.ID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "audio-prep", "ensure staging dir", "Failed to create job staging directory", err)
	}

	p.updateProgress(ctx, job, "Normalizing and trimming clips", 10)
	prepared, err := p.processor.Prepare(ctx, clips, workDir)
	if err != nil {
		return err
	}

	p.updateProgress(ctx, job, "Merging clips with crossfade", 60)
	merged := filepath.Join(workDir, "merged.mp3")
	result, err := p.processor.Merge(ctx, prepared, merged)
	if err != nil {
		return err
	}

	durations, err := stage.EncodeDurations(result.EffectiveDurations)
	if err != nil {
		return services.Wrap(services.ErrTransient, "audio-prep", "encode durations", "Failed to encode clip durations", err)
	}
	job.AudioFile = result.OutputPath
	job.DurationsJSON = durations
	job.SetProgress("Preparing audio", fmt.Sprintf("Merged track ready (%s)", audio.FormatDuration(result.TotalDuration)), 100)

	logger.Info(
		"audio preparation completed",
		logging.String("audio_file", result.OutputPath),
		logging.Float64("total_duration", result.TotalDuration),
		logging.Int("clip_count", len(result.ClipDurations)),
	)
	return nil
}

// HealthCheck verifies ffmpeg availability and the staging directory.
func (p *Preparer) HealthCheck(ctx context.Context) stage.Health {
	const name = "audio-prep"
	if p.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(p.cfg.Paths.StagingDir) == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	if _, err := exec.LookPath(p.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("%s not found in PATH", p.cfg.FFmpegBinary()))
	}
	return stage.Healthy(name)
}

func (p *Preparer) updateProgress(ctx context.Context, job *queue.Job, message string, percent float64) {
	logger := logging.WithContext(ctx, p.logger)
	job.SetProgress("Preparing audio", message, percent)
	if err := p.store.UpdateProgress(ctx, job); err != nil {
		logger.Warn("failed to persist audio progress", logging.Error(err))
	}
}

// JobWorkDir returns the staging directory for a job's intermediate files.
func JobWorkDir(cfg *config.Config, jobID int64) string {
	return filepath.Join(cfg.Paths.StagingDir, fmt.Sprintf("job-%d", jobID))
}
