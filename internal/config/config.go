package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir    string `toml:"staging_dir"`
	OutputDir     string `toml:"output_dir"`
	AudioCacheDir string `toml:"audio_cache_dir"`
	LogDir        string `toml:"log_dir"`
	DataFile      string `toml:"data_file"`
	APIBind       string `toml:"api_bind"`
	APIToken      string `toml:"api_token"`
}

// Reciter contains configuration for the EveryAyah recitation source.
type Reciter struct {
	DefaultID         int    `toml:"default_id"`
	CatalogURL        string `toml:"catalog_url"`
	BaseURL           string `toml:"base_url"`
	RequestIntervalMS int    `toml:"request_interval_ms"`
	MaxRetries        int    `toml:"max_retries"`
	DownloadTimeout   int    `toml:"download_timeout"`
}

// Audio contains configuration for recitation audio processing.
type Audio struct {
	TargetDBFS         float64 `toml:"target_dbfs"`
	SilenceThresholdDB float64 `toml:"silence_threshold_db"`
	MinSilenceMS       int     `toml:"min_silence_ms"`
	FadeMS             int     `toml:"fade_ms"`
	PaddingMS          int     `toml:"padding_ms"`
	CrossfadeMS        int     `toml:"crossfade_ms"`
	Preset             string  `toml:"preset"`
}

// Scene contains configuration for default scene composition.
type Scene struct {
	BackgroundStyle   string `toml:"background_style"`
	ColorScheme       string `toml:"color_scheme"`
	Gradient          bool   `toml:"gradient"`
	GradientDirection string `toml:"gradient_direction"`
	AspectRatio       string `toml:"aspect_ratio"`
	Quality           string `toml:"quality"`
	FrameRate         int    `toml:"frame_rate"`
	Mode              string `toml:"mode"`
}

// Fonts contains configuration for verse and info text fonts.
type Fonts struct {
	VerseFont    string `toml:"verse_font"`
	InfoFont     string `toml:"info_font"`
	FontSize     int    `toml:"font_size"`
	InfoFontSize int    `toml:"info_font_size"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	Queue              bool   `toml:"queue"`
	Render             bool   `toml:"render"`
	Errors             bool   `toml:"errors"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Alforqan.
//
// Configuration sections by subsystem:
//   - Paths: directories, dataset location, and API bind address
//   - Reciter: EveryAyah catalog and download settings
//   - Audio: loudness, silence trimming, fade, and merge settings
//   - Scene: default scene style, geometry, and quality
//   - Fonts: verse and info font paths and sizes
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling intervals and timeouts
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Reciter       Reciter       `toml:"reciter"`
	Audio         Audio         `toml:"audio"`
	Scene         Scene         `toml:"scene"`
	Fonts         Fonts         `toml:"fonts"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/alforqan/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/alforqan/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("alforqan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// OutputDir is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir, c.Paths.AudioCacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for audio processing and rendering.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
