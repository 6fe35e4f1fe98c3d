package organizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"alforqan/internal/audioprep"
	"alforqan/internal/config"
	"alforqan/internal/fileutil"
	"alforqan/internal/logging"
	"alforqan/internal/queue"
	"alforqan/internal/scene"
	"alforqan/internal/services"
	"alforqan/internal/stage"
)

// Organizer moves rendered files into the gallery and writes their
// sidecar manifests.
type Organizer struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewOrganizer constructs the organizer stage handler.
func NewOrganizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Organizer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "organizer"))
	}
	return &Organizer{cfg: cfg, store: store, logger: stageLogger, now: time.Now}
}

func (o *Organizer) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, o.logger)
	if strings.TrimSpace(job.RenderedFile) == "" {
		return services.Wrap(services.ErrValidation, "organizing", "validate inputs",
			"No rendered file present; run the render stage before organizing", nil)
	}
	if _, err := os.Stat(job.RenderedFile); err != nil {
		return services.Wrap(services.ErrValidation, "organizing", "validate inputs",
			fmt.Sprintf("Rendered file %s missing from staging", job.RenderedFile), err)
	}

	job.ProgressMessage = "Preparing gallery organization"
	job.ProgressPercent = 0
	logger.Info(
		"starting organization",
		logging.String("title", job.Title),
		logging.String("rendered_file", job.RenderedFile),
	)
	return nil
}

func (o *Organizer) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, o.logger)

	galleryDir := strings.TrimSpace(o.cfg.Paths.OutputDir)
	if galleryDir == "" {
		return services.Wrap(services.ErrConfiguration, "organizing", "resolve gallery dir",
			"Gallery directory not configured; set output_dir in config.toml", nil)
	}
	if err := os.MkdirAll(galleryDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "organizing", "ensure gallery dir", "Failed to create gallery directory", err)
	}

	o.updateProgress(ctx, job, "Moving into gallery", 20)
	target, err := o.allocateTarget(galleryDir, job)
	if err != nil {
		return err
	}
	if err := fileutil.MoveFile(job.RenderedFile, target); err != nil {
		return services.Wrap(services.ErrTransient, "organizing", "move to gallery", "Failed to move rendered file into gallery", err)
	}
	job.FinalFile = target
	logger.Info("gallery move completed", logging.String("final_file", target))

	o.updateProgress(ctx, job, "Writing manifest", 70)
	if err := o.writeManifest(job, target); err != nil {
		logger.Warn("failed to write gallery manifest", logging.Error(err))
	}

	workDir := audioprep.JobWorkDir(o.cfg, job.ID)
	if err := os.RemoveAll(workDir); err != nil {
		logger.Warn("failed to clean job staging dir", logging.Error(err), logging.String("dir", workDir))
	}

	job.SetProgressComplete("Organizing", fmt.Sprintf("Available in gallery: %s", filepath.Base(target)))
	logger.Info(
		"organization completed",
		logging.String("final_file", target),
		logging.String("title", job.Title),
	)
	return nil
}

// allocateTarget picks a collision-free gallery path 001_001-007_reciter.mp4.
func (o *Organizer) allocateTarget(dir string, job *queue.Job) (string, error) {
	ext := filepath.Ext(job.RenderedFile)
	if ext == "" {
		ext = ".mp4"
	}
	base := FinalName(job.Surah, job.StartAyah, job.EndAyah, job.ReciterName)
	candidate := filepath.Join(dir, base+ext)
	for attempt := 1; ; attempt++ {
		if _, err := os.Stat(candidate); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return candidate, nil
			}
			return "", services.Wrap(services.ErrTransient, "organizing", "allocate filename", "Unable to probe gallery filename", err)
		}
		if attempt >= 10000 {
			return "", services.Wrap(services.ErrTransient, "organizing", "allocate filename",
				fmt.Sprintf("Exhausted gallery filename slots for %s", base), nil)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, attempt, ext))
	}
}

func (o *Organizer) writeManifest(job *queue.Job, target string) error {
	opts, err := stage.SceneOverrides(scene.OptionsFromConfig(o.cfg), job)
	if err != nil {
		opts = scene.OptionsFromConfig(o.cfg)
	}
	durations, err := stage.Durations(job)
	if err != nil {
		durations = nil
	}
	var size int64
	if info, statErr := os.Stat(target); statErr == nil {
		size = info.Size()
	}

	manifest := Manifest{
		Title:       job.Title,
		Surah:       job.Surah,
		StartAyah:   job.StartAyah,
		EndAyah:     job.EndAyah,
		Reciter:     job.ReciterName,
		ReciterID:   job.ReciterID,
		Durations:   durations,
		ColorScheme: opts.ColorScheme,
		Background:  opts.BackgroundStyle,
		Quality:     opts.Quality,
		AspectRatio: opts.AspectRatio,
		SizeBytes:   size,
		CreatedAt:   o.now().UTC(),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(ManifestPath(target), data, 0o644)
}

// HealthCheck verifies the gallery directory is configured and writable.
func (o *Organizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "organizer"
	if o.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	galleryDir := strings.TrimSpace(o.cfg.Paths.OutputDir)
	if galleryDir == "" {
		return stage.Unhealthy(name, "gallery directory not configured")
	}
	if err := os.MkdirAll(galleryDir, 0o755); err != nil {
		return stage.Unhealthy(name, "gallery directory not writable")
	}
	return stage.Healthy(name)
}

func (o *Organizer) updateProgress(ctx context.Context, job *queue.Job, message string, percent float64) {
	logger := logging.WithContext(ctx, o.logger)
	job.SetProgress("Organizing", message, percent)
	if err := o.store.UpdateProgress(ctx, job); err != nil {
		logger.Warn("failed to persist organizer progress", logging.Error(err))
	}
}

// FinalName builds the gallery base name, e.g. 001_001-007_mishary-alafasy.
func FinalName(surah, startAyah, endAyah int, reciter string) string {
	slug := reciterSlug(reciter)
	if slug == "" {
		slug = "unknown"
	}
	return fmt.Sprintf("%03d_%03d-%03d_%s", surah, startAyah, endAyah, slug)
}

// ManifestPath returns the sidecar manifest path for a gallery file.
func ManifestPath(finalFile string) string {
	return strings.TrimSuffix(finalFile, filepath.Ext(finalFile)) + ".json"
}

func reciterSlug(name string) string {
	var slug strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			slug.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if !lastHyphen && slug.Len() > 0 {
				slug.WriteRune('-')
				lastHyphen = true
			}
		default:
			// drop other runes
		}
	}
	return strings.Trim(slug.String(), "-")
}
