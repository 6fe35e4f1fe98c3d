package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"alforqan/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "alforqan", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "alforqan") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7853" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Reciter.DefaultID != config.Default().Reciter.DefaultID {
		t.Fatalf("unexpected default reciter: %d", cfg.Reciter.DefaultID)
	}
	if cfg.Scene.AspectRatio != "16:9" {
		t.Fatalf("unexpected aspect ratio: %q", cfg.Scene.AspectRatio)
	}
	if cfg.Audio.Preset != "default" {
		t.Fatalf("unexpected audio preset: %q", cfg.Audio.Preset)
	}
	if cfg.Workflow.HeartbeatInterval != config.Default().Workflow.HeartbeatInterval {
		t.Fatalf("unexpected heartbeat interval: %d", cfg.Workflow.HeartbeatInterval)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir, cfg.Paths.AudioCacheDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "alforqan.toml")

	type payload struct {
		Reciter struct {
			DefaultID int    `toml:"default_id"`
			BaseURL   string `toml:"base_url"`
		} `toml:"reciter"`
		Scene struct {
			AspectRatio string `toml:"aspect_ratio"`
			ColorScheme string `toml:"color_scheme"`
		} `toml:"scene"`
		Workflow struct {
			HeartbeatInterval int `toml:"heartbeat_interval"`
			HeartbeatTimeout  int `toml:"heartbeat_timeout"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Reciter.DefaultID = 12
	custom.Reciter.BaseURL = "https://example.com/data/"
	custom.Scene.AspectRatio = "9:16"
	custom.Scene.ColorScheme = "Prayer_Night"
	custom.Workflow.HeartbeatInterval = 20
	custom.Workflow.HeartbeatTimeout = 200
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Reciter.DefaultID != 12 {
		t.Fatalf("expected reciter 12, got %d", cfg.Reciter.DefaultID)
	}
	if cfg.Reciter.BaseURL != "https://example.com/data" {
		t.Fatalf("expected trailing slash stripped, got %q", cfg.Reciter.BaseURL)
	}
	if cfg.Scene.AspectRatio != "9:16" {
		t.Fatalf("expected aspect ratio override, got %q", cfg.Scene.AspectRatio)
	}
	if cfg.Scene.ColorScheme != "prayer_night" {
		t.Fatalf("expected color scheme lowercased, got %q", cfg.Scene.ColorScheme)
	}
	if cfg.Workflow.HeartbeatInterval != 20 {
		t.Fatalf("expected heartbeat interval 20, got %d", cfg.Workflow.HeartbeatInterval)
	}
	if cfg.Workflow.HeartbeatTimeout != 200 {
		t.Fatalf("expected heartbeat timeout 200, got %d", cfg.Workflow.HeartbeatTimeout)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "everyayah.com") {
		t.Fatalf("sample config missing recitation source: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Scene.ColorScheme != "desert_sunset" {
		t.Fatalf("unexpected sample color scheme: %q", cfg.Scene.ColorScheme)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Reciter.DefaultID = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing reciter")
	}

	cfg = config.Default()
	cfg.Workflow.HeartbeatInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for heartbeat interval")
	}

	cfg = config.Default()
	cfg.Workflow.HeartbeatTimeout = cfg.Workflow.HeartbeatInterval
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when timeout <= interval")
	}

	cfg = config.Default()
	cfg.Scene.AspectRatio = "4:3"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported aspect ratio")
	}

	cfg = config.Default()
	cfg.Audio.SilenceThresholdDB = 3
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for positive silence threshold")
	}

	cfg = config.Default()
	cfg.Audio.Preset = "extreme"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown audio preset")
	}
}
