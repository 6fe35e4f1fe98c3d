package rendering

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"log/slog"

	"alforqan/internal/audioprep"
	"alforqan/internal/config"
	"alforqan/internal/fonts"
	"alforqan/internal/logging"
	"alforqan/internal/queue"
	"alforqan/internal/quran"
	"alforqan/internal/render"
	"alforqan/internal/scene"
	"alforqan/internal/services"
	"alforqan/internal/stage"
)

// Renderer composes the scene for a job and drives the ffmpeg renderer.
type Renderer struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	data     *quran.Data
	client   render.Client
	registry *fonts.Registry
}

// NewRenderer constructs the rendering stage handler with the configured
// dataset, font registry, and ffmpeg client.
func NewRenderer(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Renderer, error) {
	data, err := quran.Load(cfg.Paths.DataFile)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "rendering", "load dataset", "Failed to load Quran dataset; check data_file in config.toml", err)
	}
	registry, err := fonts.NewRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	client := render.NewFFmpeg(render.WithBinary(cfg.FFmpegBinary()))
	return NewRendererWithDependencies(cfg, store, logger, data, client, registry), nil
}

// NewRendererWithDependencies allows injecting collaborators (used in tests).
func NewRendererWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, data *quran.Data, client render.Client, registry *fonts.Registry) *Renderer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "rendering"))
	}
	return &Renderer{cfg: cfg, store: store, logger: stageLogger, data: data, client: client, registry: registry}
}

func (r *Renderer) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, r.logger)

	opts, err := stage.SceneOverrides(scene.OptionsFromConfig(r.cfg), job)
	if err != nil {
		return err
	}
	if scene.Mode(opts.Mode) != scene.ModeImage {
		if strings.TrimSpace(job.AudioFile) == "" {
			return services.Wrap(services.ErrValidation, "rendering", "validate inputs",
				"No merged audio present; rerun audio preparation", nil)
		}
		if _, statErr := os.Stat(job.AudioFile); statErr != nil {
			return services.Wrap(services.ErrValidation, "rendering", "validate inputs",
				fmt.Sprintf("Merged audio %s missing from staging", job.AudioFile), statErr)
		}
		if _, err := stage.Durations(job); err != nil {
			return err
		}
	}

	job.ProgressMessage = "Composing scene"
	job.ProgressPercent = 0
	logger.Info(
		"starting render preparation",
		logging.String("title", job.Title),
		logging.String("mode", opts.Mode),
		logging.String("quality", opts.Quality),
	)
	return nil
}

func (r *Renderer) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, r.logger)

	spec, err := r.composeSpec(ctx, job)
	if err != nil {
		return err
	}

	outputDir := audioprep.JobWorkDir(r.cfg, job.ID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "rendering", "ensure staging dir", "Failed to create job staging directory", err)
	}

	logger.Info(
		"starting render",
		logging.Int("verse_count", len(spec.Verses)),
		logging.Int("width", spec.Geometry.Width),
		logging.Int("height", spec.Geometry.Height),
		logging.Float64("total_duration", spec.Timeline.Total),
	)

	rendered, err := r.client.Render(ctx, spec, job.AudioFile, outputDir, func(update render.ProgressUpdate) {
		job.SetProgress("Rendering", update.Message, update.Percent)
		if updateErr := r.store.UpdateProgress(ctx, job); updateErr != nil {
			logger.Warn("failed to persist render progress", logging.Error(updateErr))
		}
	})
	if err != nil {
		return err
	}

	job.RenderedFile = rendered
	job.SetProgress("Rendering", "Render finished", 100)
	logger.Info("render completed", logging.String("rendered_file", rendered))
	return nil
}

// composeSpec resolves verse text and composes the render-ready scene spec.
func (r *Renderer) composeSpec(ctx context.Context, job *queue.Job) (scene.Spec, error) {
	logger := logging.WithContext(ctx, r.logger)

	opts, err := stage.SceneOverrides(scene.OptionsFromConfig(r.cfg), job)
	if err != nil {
		return scene.Spec{}, err
	}
	if font, ok := r.registry.Lookup(fonts.RoleVerse); ok && strings.TrimSpace(opts.VerseFont) == "" {
		opts.VerseFont = font.Path
	}
	if font, ok := r.registry.Lookup(fonts.RoleInfo); ok && strings.TrimSpace(opts.InfoFont) == "" {
		opts.InfoFont = font.Path
	}

	verses, err := r.data.Range(job.Surah, job.StartAyah, job.EndAyah)
	if err != nil {
		return scene.Spec{}, services.Wrap(services.ErrValidation, "rendering", "resolve verses", err.Error(), nil)
	}

	texts := make([]string, 0, len(verses))
	for _, verse := range verses {
		text := quran.NormalizeText(verse.Text)
		if dropped := fonts.UnsupportedRunes(text); len(dropped) > 0 {
			logger.Warn(
				"dropping unrenderable characters",
				logging.Int("ayah", verse.Ayah),
				logging.Int("dropped", len(dropped)),
			)
		}
		text = fonts.FilterText(text)
		if strings.TrimSpace(text) == "" {
			return scene.Spec{}, services.Wrap(services.ErrValidation, "rendering", "filter text",
				fmt.Sprintf("Verse %d:%d has no renderable text", verse.Surah, verse.Ayah), nil)
		}
		texts = append(texts, text)
	}

	var durations []float64
	if scene.Mode(opts.Mode) == scene.ModeImage {
		// Image mode has no audio track; a nominal second per verse keeps
		// the timeline computable.
		durations = make([]float64, len(texts))
		for i := range durations {
			durations[i] = 1
		}
	} else {
		durations, err = stage.Durations(job)
		if err != nil {
			return scene.Spec{}, err
		}
	}

	info := verses[0].Info()
	spec, err := scene.Build(opts, texts, info, durations)
	if err != nil {
		return scene.Spec{}, err
	}
	return spec, nil
}

// HealthCheck verifies ffmpeg availability and the configured fonts.
func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	const name = "rendering"
	if r.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if _, err := exec.LookPath(r.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("%s not found in PATH", r.cfg.FFmpegBinary()))
	}
	if r.data == nil {
		return stage.Unhealthy(name, "Quran dataset not loaded")
	}
	if font, ok := r.registry.Lookup(fonts.RoleVerse); ok {
		if _, err := os.Stat(font.Path); err != nil {
			return stage.Unhealthy(name, fmt.Sprintf("verse font missing: %s", font.Path))
		}
	}
	return stage.Healthy(name)
}
