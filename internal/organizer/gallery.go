package organizer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Manifest is the JSON sidecar written next to each gallery file.
type Manifest struct {
	Title       string    `json:"title"`
	Surah       int       `json:"surah"`
	StartAyah   int       `json:"start_ayah"`
	EndAyah     int       `json:"end_ayah"`
	Reciter     string    `json:"reciter"`
	ReciterID   int       `json:"reciter_id,omitempty"`
	Durations   []float64 `json:"durations,omitempty"`
	ColorScheme string    `json:"color_scheme,omitempty"`
	Background  string    `json:"background_style,omitempty"`
	Quality     string    `json:"quality,omitempty"`
	AspectRatio string    `json:"aspect_ratio,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Entry is one gallery listing row: the media file plus its manifest when
// one exists.
type Entry struct {
	Path     string
	Manifest Manifest
}

var galleryExtensions = map[string]bool{
	".mp4": true,
	".png": true,
}

// ListGallery scans the gallery directory and returns entries sorted by
// creation time, newest first. Files without a manifest get a stat-derived
// fallback so pre-manifest renders still show up.
func ListGallery(dir string) ([]Entry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.IsDir() || !galleryExtensions[strings.ToLower(filepath.Ext(item.Name()))] {
			continue
		}
		path := filepath.Join(dir, item.Name())
		entries = append(entries, Entry{Path: path, Manifest: readManifest(path)})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Manifest.CreatedAt.After(entries[j].Manifest.CreatedAt)
	})
	return entries, nil
}

func readManifest(mediaPath string) Manifest {
	data, err := os.ReadFile(ManifestPath(mediaPath))
	if err == nil {
		var manifest Manifest
		if unmarshalErr := json.Unmarshal(data, &manifest); unmarshalErr == nil {
			return manifest
		}
	}

	base := filepath.Base(mediaPath)
	manifest := Manifest{Title: strings.TrimSuffix(base, filepath.Ext(base))}
	if info, statErr := os.Stat(mediaPath); statErr == nil {
		manifest.SizeBytes = info.Size()
		manifest.CreatedAt = info.ModTime().UTC()
	}
	return manifest
}
