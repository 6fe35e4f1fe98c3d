package reciters_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"alforqan/internal/logging"
	"alforqan/internal/reciters"
	"alforqan/internal/testsupport"
)

const sampleCatalog = `{
  "6": {"subfolder": "Abdullah_Basfar_192kbps", "name": "Abdullah Basfar", "bitrate": "192kbps"},
  "7": {"subfolder": "Alafasy_128kbps", "name": "Mishary Rashid Alafasy", "bitrate": "128kbps"},
  "12": {"subfolder": "Husary_128kbps", "name": "Mahmoud Khalil Al-Husary", "bitrate": "128kbps"},
  "ayahCount": [7, 286, 200]
}`

func TestParseCatalog(t *testing.T) {
	catalog, err := reciters.ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if catalog.Len() != 3 {
		t.Fatalf("expected 3 reciters, got %d", catalog.Len())
	}

	reciter, err := catalog.Get(7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reciter.Subfolder != "Alafasy_128kbps" {
		t.Fatalf("unexpected subfolder: %q", reciter.Subfolder)
	}
	if got := reciter.String(); got != "Mishary Rashid Alafasy (128kbps)" {
		t.Fatalf("unexpected string form: %q", got)
	}

	if _, err := catalog.Get(99); err == nil {
		t.Fatal("expected error for unknown reciter")
	}

	if got := catalog.AyahCount(2); got != 286 {
		t.Fatalf("expected 286 ayahs for surah 2, got %d", got)
	}
	if err := catalog.ValidateAyah(1, 8); err == nil {
		t.Fatal("expected error for ayah beyond surah length")
	}
	if err := catalog.ValidateAyah(1, 7); err != nil {
		t.Fatalf("ValidateAyah: %v", err)
	}
}

func TestCatalogListSortedAndSearch(t *testing.T) {
	catalog, err := reciters.ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	list := catalog.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 reciters, got %d", len(list))
	}
	if list[0].Name != "Abdullah Basfar" {
		t.Fatalf("expected sort by name, got %q first", list[0].Name)
	}

	matches := catalog.Search("alafasy")
	if len(matches) != 1 || matches[0].ID != 7 {
		t.Fatalf("unexpected search result: %#v", matches)
	}

	quality := catalog.ByBitrate("128kbps")
	if len(quality) != 2 {
		t.Fatalf("expected 2 reciters at 128kbps, got %d", len(quality))
	}
}

func TestClientCachesCatalogOnDisk(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(sampleCatalog))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Reciter.CatalogURL = server.URL

	client := reciters.NewClient(cfg, nil, logging.NewNop())
	ctx := context.Background()

	catalog, err := client.Catalog(ctx)
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if catalog.Len() != 3 {
		t.Fatalf("expected 3 reciters, got %d", catalog.Len())
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one fetch, got %d", hits.Load())
	}

	// Second call is served from memory.
	if _, err := client.Catalog(ctx); err != nil {
		t.Fatalf("Catalog (cached): %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected no additional fetches, got %d", hits.Load())
	}

	cachePath := filepath.Join(cfg.Paths.AudioCacheDir, "recitations.json")
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("expected catalog cache on disk: %v", err)
	}

	// A fresh client should read the disk cache without touching the network.
	fresh := reciters.NewClient(cfg, nil, logging.NewNop())
	if _, err := fresh.Catalog(ctx); err != nil {
		t.Fatalf("Catalog (disk cache): %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected disk cache hit, got %d fetches", hits.Load())
	}
}

func TestClientServesStaleCacheWhenFetchFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Reciter.CatalogURL = "http://127.0.0.1:1/recitations.js"
	cfg.Reciter.DownloadTimeout = 1

	cachePath := filepath.Join(cfg.Paths.AudioCacheDir, "recitations.json")
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		t.Fatalf("mkdir cache: %v", err)
	}
	if err := os.WriteFile(cachePath, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatalf("write cache: %v", err)
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(cachePath, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	client := reciters.NewClient(cfg, nil, logging.NewNop())
	catalog, err := client.Catalog(context.Background())
	if err != nil {
		t.Fatalf("expected stale cache fallback, got %v", err)
	}
	if catalog.Len() != 3 {
		t.Fatalf("unexpected catalog size: %d", catalog.Len())
	}
}

func TestReciterLookupThroughClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCatalog))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Reciter.CatalogURL = server.URL

	client := reciters.NewClient(cfg, reciters.NewHTTPBreaker("test"), logging.NewNop())
	reciter, err := client.Reciter(context.Background(), 6)
	if err != nil {
		t.Fatalf("Reciter: %v", err)
	}
	if reciter.Name != "Abdullah Basfar" {
		t.Fatalf("unexpected reciter: %#v", reciter)
	}
}
