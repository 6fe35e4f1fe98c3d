package reciters

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
	"alforqan/internal/services"
)

const catalogCacheTTL = 24 * time.Hour

// NewHTTPBreaker builds the circuit breaker shared by EveryAyah HTTP callers.
// It opens after five consecutive failures and probes again after a minute.
func NewHTTPBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// Client fetches and caches the EveryAyah recitation catalog.
type Client struct {
	catalogURL string
	cachePath  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger

	mu     sync.Mutex
	cached *Catalog
}

// NewClient builds a catalog client from configuration. The breaker may be
// shared with the audio downloader; pass nil to create a dedicated one.
func NewClient(cfg *config.Config, breaker *gobreaker.CircuitBreaker, logger *slog.Logger) *Client {
	if breaker == nil {
		breaker = NewHTTPBreaker("everyayah")
	}
	return &Client{
		catalogURL: cfg.Reciter.CatalogURL,
		cachePath:  filepath.Join(cfg.Paths.AudioCacheDir, "recitations.json"),
		httpClient: &http.Client{Timeout: time.Duration(cfg.Reciter.DownloadTimeout) * time.Second},
		breaker:    breaker,
		logger:     logging.NewComponentLogger(logger, "reciters"),
	}
}

// Catalog returns the recitation catalog, from memory, a fresh disk cache, or
// the network, in that order. A stale disk cache is served when the network
// fetch fails so the daemon keeps working offline.
func (c *Client) Catalog(ctx context.Context) (*Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return c.cached, nil
	}

	if data, fresh := c.readCache(); data != nil && fresh {
		catalog, err := ParseCatalog(data)
		if err == nil {
			c.cached = catalog
			return catalog, nil
		}
		c.logger.Warn("cached catalog unreadable, refetching", logging.Error(err))
	}

	data, fetchErr := c.fetch(ctx)
	if fetchErr != nil {
		if stale, _ := c.readCache(); stale != nil {
			catalog, err := ParseCatalog(stale)
			if err == nil {
				c.logger.Warn("serving stale recitation catalog", logging.Error(fetchErr))
				c.cached = catalog
				return catalog, nil
			}
		}
		return nil, fetchErr
	}

	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	c.writeCache(data)
	c.cached = catalog
	return catalog, nil
}

// Reciter resolves a single reciter by id.
func (c *Client) Reciter(ctx context.Context, id int) (Reciter, error) {
	catalog, err := c.Catalog(ctx)
	if err != nil {
		return Reciter{}, err
	}
	return catalog.Get(id)
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.catalogURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog fetch returned %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "reciters", "fetch-catalog", "download recitation catalog", err)
	}
	return result.([]byte), nil
}

func (c *Client) readCache() (data []byte, fresh bool) {
	info, err := os.Stat(c.cachePath)
	if err != nil {
		return nil, false
	}
	data, err = os.ReadFile(c.cachePath)
	if err != nil {
		return nil, false
	}
	return data, time.Since(info.ModTime()) < catalogCacheTTL
}

func (c *Client) writeCache(data []byte) {
	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0o755); err != nil {
		c.logger.Warn("create catalog cache dir failed", logging.Error(err))
		return
	}
	tmp := c.cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		c.logger.Warn("write catalog cache failed", logging.Error(err))
		return
	}
	if err := os.Rename(tmp, c.cachePath); err != nil {
		c.logger.Warn("replace catalog cache failed", logging.Error(err))
	}
}
