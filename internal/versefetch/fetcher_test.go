package versefetch_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"alforqan/internal/audio"
	"alforqan/internal/config"
	"alforqan/internal/logging"
	"alforqan/internal/queue"
	"alforqan/internal/quran"
	"alforqan/internal/reciters"
	"alforqan/internal/services"
	"alforqan/internal/testsupport"
	"alforqan/internal/versefetch"
)

type stubReciterSource struct {
	reciter reciters.Reciter
	err     error
}

func (s stubReciterSource) Reciter(context.Context, int) (reciters.Reciter, error) {
	return s.reciter, s.err
}

type stubDownloader struct {
	cfg     *config.Config
	reciter reciters.Reciter
	failOn  int

	mu      sync.Mutex
	fetched []int
}

func (s *stubDownloader) Fetch(_ context.Context, reciter reciters.Reciter, surah, ayah int) (string, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, ayah)
	s.mu.Unlock()
	if s.failOn != 0 && ayah == s.failOn {
		return "", services.Wrap(services.ErrTransient, "audio", "fetch", fmt.Sprintf("download %d:%d", surah, ayah), errors.New("boom"))
	}
	path := audio.CachePath(s.cfg.Paths.AudioCacheDir, reciter, surah, ayah)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte("mp3"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func newFetcherForTest(t *testing.T, cfg *config.Config, store *queue.Store, downloader *stubDownloader) (*versefetch.Fetcher, *stubDownloader) {
	t.Helper()
	data, err := quran.Load(cfg.Paths.DataFile)
	if err != nil {
		t.Fatalf("quran.Load: %v", err)
	}
	reciter := reciters.Reciter{ID: 7, Name: "Mishary Alafasy", Subfolder: "Alafasy_128kbps", Bitrate: "128kbps"}
	if downloader == nil {
		downloader = &stubDownloader{cfg: cfg, reciter: reciter}
	}
	fetcher := versefetch.NewFetcherWithDependencies(cfg, store, logging.NewNop(), data, stubReciterSource{reciter: reciter}, downloader)
	return fetcher, downloader
}

func TestPrepareSetsTitleAndReciter(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSampleDataset())
	store := testsupport.MustOpenStore(t, cfg)
	fetcher, _ := newFetcherForTest(t, cfg, store, nil)
	job := testsupport.NewJob(t, store, 7, 1, 1, 3)

	if err := fetcher.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if job.Title != "Surah Al-Fatihah 1:1-3" {
		t.Fatalf("unexpected title %q", job.Title)
	}
	if job.ReciterName != "Mishary Alafasy" {
		t.Fatalf("unexpected reciter name %q", job.ReciterName)
	}
}

func TestPrepareRejectsInvalidRange(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSampleDataset())
	store := testsupport.MustOpenStore(t, cfg)
	fetcher, _ := newFetcherForTest(t, cfg, store, nil)
	job := testsupport.NewJob(t, store, 7, 1, 5, 99)

	err := fetcher.Prepare(context.Background(), job)
	if err == nil {
		t.Fatal("expected validation error for out-of-range ayah")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestExecuteDownloadsAllClips(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSampleDataset())
	store := testsupport.MustOpenStore(t, cfg)
	fetcher, downloader := newFetcherForTest(t, cfg, store, nil)
	job := testsupport.NewJob(t, store, 7, 1, 1, 4)

	if err := fetcher.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	downloader.mu.Lock()
	fetched := len(downloader.fetched)
	downloader.mu.Unlock()
	if fetched != 4 {
		t.Fatalf("expected 4 fetches, got %d", fetched)
	}
	for ayah := 1; ayah <= 4; ayah++ {
		path := audio.CachePath(cfg.Paths.AudioCacheDir, downloader.reciter, 1, ayah)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("missing clip for ayah %d: %v", ayah, err)
		}
	}
	if job.ProgressPercent != 100 {
		t.Fatalf("expected 100 percent, got %.1f", job.ProgressPercent)
	}
}

func TestExecuteSurfacesDownloadFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSampleDataset())
	reciter := reciters.Reciter{ID: 7, Name: "Mishary Alafasy", Subfolder: "Alafasy_128kbps"}
	store := testsupport.MustOpenStore(t, cfg)
	downloader := &stubDownloader{cfg: cfg, reciter: reciter, failOn: 2}
	fetcher, _ := newFetcherForTest(t, cfg, store, downloader)
	job := testsupport.NewJob(t, store, 7, 1, 1, 3)

	err := fetcher.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected download failure to surface")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestHealthCheckRequiresCacheDir(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSampleDataset())
	store := testsupport.MustOpenStore(t, cfg)
	fetcher, _ := newFetcherForTest(t, cfg, store, nil)

	health := fetcher.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("expected healthy, got %q", health.Detail)
	}

	broken := *cfg
	broken.Paths.AudioCacheDir = filepath.Join(cfg.Paths.AudioCacheDir, "missing")
	brokenFetcher, _ := newFetcherForTest(t, &broken, store, nil)
	health = brokenFetcher.HealthCheck(context.Background())
	if health.Ready {
		t.Fatal("expected unhealthy for missing cache dir")
	}
}

func TestClipPathsOrdersByAyah(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	reciter := reciters.Reciter{Subfolder: "Alafasy_128kbps"}
	paths := versefetch.ClipPaths(cfg, reciter, 1, 2, 4)
	if len(paths) != 3 {
		t.Fatalf("expected 3 paths, got %d", len(paths))
	}
	want := filepath.Join(cfg.Paths.AudioCacheDir, "Alafasy_128kbps", "001002.mp3")
	if paths[0] != want {
		t.Fatalf("expected %q, got %q", want, paths[0])
	}
}
