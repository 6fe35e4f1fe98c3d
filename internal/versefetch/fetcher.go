package versefetch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"alforqan/internal/audio"
	"alforqan/internal/config"
	"alforqan/internal/logging"
	"alforqan/internal/queue"
	"alforqan/internal/quran"
	"alforqan/internal/reciters"
	"alforqan/internal/services"
	"alforqan/internal/stage"
)

// downloadConcurrency bounds simultaneous EveryAyah requests. The downloader
// rate limits globally, so this mostly overlaps probe work with transfers.
const downloadConcurrency = 4

// ReciterSource resolves reciter metadata for a job.
type ReciterSource interface {
	Reciter(ctx context.Context, id int) (reciters.Reciter, error)
}

// ClipSource fetches a single ayah recitation and returns its local path.
type ClipSource interface {
	Fetch(ctx context.Context, reciter reciters.Reciter, surah, ayah int) (string, error)
}

// Fetcher resolves verse text and downloads the per-ayah recitation clips.
type Fetcher struct {
	cfg        *config.Config
	store      *queue.Store
	logger     *slog.Logger
	data       *quran.Data
	reciters   ReciterSource
	downloader ClipSource
}

// NewFetcher constructs the verse fetch stage handler with default
// collaborators: the configured Quran dataset, the EveryAyah catalog
// client, and the clip downloader sharing one circuit breaker.
func NewFetcher(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Fetcher, error) {
	data, err := quran.Load(cfg.Paths.DataFile)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "verse-fetch", "load dataset", "Failed to load Quran dataset; check data_file in config.toml", err)
	}
	breaker := reciters.NewHTTPBreaker("everyayah")
	client := reciters.NewClient(cfg, breaker, logger)
	downloader := audio.NewDownloader(cfg, breaker, logger)
	return NewFetcherWithDependencies(cfg, store, logger, data, client, downloader), nil
}

// NewFetcherWithDependencies allows injecting collaborators (used in tests).
func NewFetcherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, data *quran.Data, source ReciterSource, downloader ClipSource) *Fetcher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "verse-fetch"))
	}
	return &Fetcher{
		cfg:        cfg,
		store:      store,
		logger:     stageLogger,
		data:       data,
		reciters:   source,
		downloader: downloader,
	}
}

func (f *Fetcher) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, f.logger)
	if err := f.data.ValidateRange(job.Surah, job.StartAyah, job.EndAyah); err != nil {
		return services.Wrap(services.ErrValidation, "verse-fetch", "validate range", err.Error(), nil)
	}

	reciter, err := f.reciters.Reciter(ctx, job.ReciterID)
	if err != nil {
		return services.Wrap(services.ErrValidation, "verse-fetch", "resolve reciter",
			fmt.Sprintf("Unknown reciter id %d; run `alforqan reciters list` for available ids", job.ReciterID), err)
	}
	job.ReciterName = reciter.Name

	english, _, err := f.data.SurahName(job.Surah)
	if err != nil {
		return services.Wrap(services.ErrValidation, "verse-fetch", "resolve surah", err.Error(), nil)
	}
	if strings.TrimSpace(job.Title) == "" {
		job.Title = fmt.Sprintf("Surah %s %d:%s", english, job.Surah, job.VerseRange())
	}

	job.ProgressMessage = fmt.Sprintf("Fetching %d verse(s) recited by %s", job.AyahCount(), reciter.Name)
	job.ProgressPercent = 0
	logger.Info(
		"starting verse fetch",
		logging.String("title", job.Title),
		logging.Int("surah", job.Surah),
		logging.String("verse_range", job.VerseRange()),
		logging.String("reciter", reciter.Name),
	)
	return nil
}

func (f *Fetcher) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, f.logger)

	verses, err := f.data.Range(job.Surah, job.StartAyah, job.EndAyah)
	if err != nil {
		return services.Wrap(services.ErrValidation, "verse-fetch", "resolve verses", err.Error(), nil)
	}
	for _, verse := range verses {
		text := quran.NormalizeText(verse.Text)
		if strings.TrimSpace(text) == "" {
			return services.Wrap(services.ErrValidation, "verse-fetch", "resolve verses",
				fmt.Sprintf("Verse %d:%d has no text in the dataset", verse.Surah, verse.Ayah), nil)
		}
	}

	reciter, err := f.reciters.Reciter(ctx, job.ReciterID)
	if err != nil {
		return services.Wrap(services.ErrValidation, "verse-fetch", "resolve reciter",
			fmt.Sprintf("Unknown reciter id %d", job.ReciterID), err)
	}

	total := len(verses)
	completed := 0
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(downloadConcurrency)
	results := make([]string, total)
	progress := make(chan int, total)

	for i, verse := range verses {
		group.Go(func() error {
			path, fetchErr := f.downloader.Fetch(groupCtx, reciter, verse.Surah, verse.Ayah)
			if fetchErr != nil {
				return fetchErr
			}
			results[i] = path
			select {
			case progress <- verse.Ayah:
			default:
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- group.Wait()
	}()
	for {
		select {
		case ayah := <-progress:
			completed++
			percent := float64(completed) / float64(total) * 100
			job.SetProgress("Fetching", fmt.Sprintf("Downloaded ayah %d (%d of %d)", ayah, completed, total), percent)
			if updateErr := f.store.UpdateProgress(ctx, job); updateErr != nil {
				logger.Warn("failed to persist fetch progress", logging.Error(updateErr))
			}
			continue
		case err = <-done:
		}
		break
	}
	if err != nil {
		return err
	}

	for i, path := range results {
		if path == "" {
			return services.Wrap(services.ErrTransient, "verse-fetch", "verify clips",
				fmt.Sprintf("Clip for ayah %d missing after download", verses[i].Ayah), nil)
		}
	}

	job.SetProgress("Fetching", fmt.Sprintf("Fetched %d clip(s)", total), 100)
	logger.Info(
		"verse fetch completed",
		logging.Int("clip_count", total),
		logging.String("reciter_subfolder", reciter.Subfolder),
	)
	return nil
}

// HealthCheck verifies the Quran dataset and the audio cache directory.
func (f *Fetcher) HealthCheck(ctx context.Context) stage.Health {
	const name = "verse-fetch"
	if f.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if f.data == nil || f.data.AyahCount(1) == 0 {
		return stage.Unhealthy(name, "Quran dataset not loaded")
	}
	cacheDir := strings.TrimSpace(f.cfg.Paths.AudioCacheDir)
	if cacheDir == "" {
		return stage.Unhealthy(name, "audio cache directory not configured")
	}
	if info, err := os.Stat(cacheDir); err != nil || !info.IsDir() {
		return stage.Unhealthy(name, "audio cache directory missing")
	}
	return stage.Healthy(name)
}

// ClipPaths returns the expected cache paths for a job's ayah range in
// ascending ayah order. Later stages use this to locate fetched clips.
func ClipPaths(cfg *config.Config, reciter reciters.Reciter, surah, startAyah, endAyah int) []string {
	paths := make([]string, 0, endAyah-startAyah+1)
	for ayah := startAyah; ayah <= endAyah; ayah++ {
		paths = append(paths, audio.CachePath(cfg.Paths.AudioCacheDir, reciter, surah, ayah))
	}
	return paths
}
