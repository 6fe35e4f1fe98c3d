package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"alforqan/internal/organizer"
)

func TestGalleryListsRenderedVideos(t *testing.T) {
	env := setupCLITestEnv(t)

	if err := os.MkdirAll(env.cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir gallery: %v", err)
	}
	videoPath := filepath.Join(env.cfg.Paths.OutputDir, "112_001-004_mishary-alafasy.mp4")
	if err := os.WriteFile(videoPath, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	manifest := organizer.Manifest{
		Title:     "Surah Al-Ikhlas 112:1-4",
		Surah:     112,
		StartAyah: 1,
		EndAyah:   4,
		Reciter:   "Mishary Alafasy",
		SizeBytes: 5,
		CreatedAt: time.Now().UTC(),
	}
	encoded, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("encode manifest: %v", err)
	}
	if err := os.WriteFile(organizer.ManifestPath(videoPath), encoded, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	out, _, err := runCLI(t, []string{"gallery"}, env.configPath)
	if err != nil {
		t.Fatalf("gallery: %v", err)
	}
	requireContains(t, out, "112_001-004_mishary-alafasy.mp4")
	requireContains(t, out, "Surah Al-Ikhlas 112:1-4")
	requireContains(t, out, "112:1-4")
	requireContains(t, out, "Mishary Alafasy")
}

func TestGalleryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"gallery"}, env.configPath)
	if err != nil {
		t.Fatalf("gallery: %v", err)
	}
	requireContains(t, out, "Gallery is empty")
}
