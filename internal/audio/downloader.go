package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"alforqan/internal/config"
	"alforqan/internal/logging"
	"alforqan/internal/reciters"
	"alforqan/internal/services"
)

// ClipName returns the EveryAyah file name for a surah/ayah pair, e.g. 001007.mp3.
func ClipName(surah, ayah int) string {
	return fmt.Sprintf("%03d%03d.mp3", surah, ayah)
}

// CachePath returns where Fetch stores a reciter's clip for a surah/ayah pair.
func CachePath(cacheDir string, reciter reciters.Reciter, surah, ayah int) string {
	return filepath.Join(cacheDir, reciter.Subfolder, ClipName(surah, ayah))
}

// Downloader fetches per-ayah recitation MP3s into the on-disk cache.
type Downloader struct {
	baseURL    string
	cacheDir   string
	interval   time.Duration
	maxRetries int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

// NewDownloader builds a downloader from configuration. The breaker may be
// shared with the catalog client; pass nil for a dedicated one.
func NewDownloader(cfg *config.Config, breaker *gobreaker.CircuitBreaker, logger *slog.Logger) *Downloader {
	if breaker == nil {
		breaker = reciters.NewHTTPBreaker("everyayah-audio")
	}
	return &Downloader{
		baseURL:    cfg.Reciter.BaseURL,
		cacheDir:   cfg.Paths.AudioCacheDir,
		interval:   time.Duration(cfg.Reciter.RequestIntervalMS) * time.Millisecond,
		maxRetries: cfg.Reciter.MaxRetries,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Reciter.DownloadTimeout) * time.Second},
		breaker:    breaker,
		logger:     logging.NewComponentLogger(logger, "audio-downloader"),
	}
}

// Fetch returns the cached path for an ayah clip, downloading it when absent.
func (d *Downloader) Fetch(ctx context.Context, reciter reciters.Reciter, surah, ayah int) (string, error) {
	if reciter.Subfolder == "" {
		return "", services.Wrap(services.ErrValidation, "audio", "fetch", "reciter has no subfolder", nil)
	}

	target := CachePath(d.cacheDir, reciter, surah, ayah)
	dir := filepath.Dir(target)
	if info, err := os.Stat(target); err == nil && info.Size() > 0 {
		return target, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create audio cache dir: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", d.baseURL, reciter.Subfolder, ClipName(surah, ayah))

	var lastErr error
	lastRetryable := false
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			select {
			case <-ctx.Done():
				return "", services.Wrap(services.ErrTimeout, "audio", "fetch", "download cancelled", ctx.Err())
			case <-time.After(backoff):
			}
		}
		d.applyRateLimit(ctx)

		retryable, err := d.downloadOnce(ctx, url, target)
		if err == nil {
			d.logger.Debug("ayah downloaded",
				logging.String("url", url),
				logging.Int("surah", surah),
				logging.Int("ayah", ayah),
			)
			return target, nil
		}
		lastErr = err
		lastRetryable = retryable
		if !retryable {
			break
		}
	}
	marker := services.ErrExternalTool
	if lastRetryable {
		marker = services.ErrTransient
	}
	return "", services.Wrap(marker, "audio", "fetch",
		fmt.Sprintf("download %d:%d for %s", surah, ayah, reciter.Name), lastErr)
}

// downloadOnce performs a single download attempt with an atomic write.
func (d *Downloader) downloadOnce(ctx context.Context, url, target string) (retryable bool, err error) {
	_, execErr := d.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			retryable = false
			return nil, err
		}
		resp, err := d.httpClient.Do(req)
		if err != nil {
			retryable = true
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode >= 500:
			retryable = true
			return nil, fmt.Errorf("server returned %s", resp.Status)
		default:
			retryable = false
			return nil, fmt.Errorf("server returned %s", resp.Status)
		}

		tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
		if err != nil {
			retryable = false
			return nil, err
		}
		defer os.Remove(tmp.Name())

		if _, err := io.Copy(tmp, resp.Body); err != nil {
			tmp.Close()
			retryable = true
			return nil, err
		}
		if err := tmp.Close(); err != nil {
			retryable = false
			return nil, err
		}
		if err := os.Rename(tmp.Name(), target); err != nil {
			retryable = false
			return nil, err
		}
		return nil, nil
	})
	if execErr != nil {
		if execErr == gobreaker.ErrOpenState || execErr == gobreaker.ErrTooManyRequests {
			return false, execErr
		}
		return retryable, execErr
	}
	return false, nil
}

func (d *Downloader) applyRateLimit(ctx context.Context) {
	if d.interval <= 0 {
		return
	}
	d.mu.Lock()
	wait := d.interval - time.Since(d.lastRequest)
	d.lastRequest = time.Now().Add(wait)
	d.mu.Unlock()
	if wait <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
