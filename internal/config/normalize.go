package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeReciter()
	c.normalizeAudio()
	c.normalizeScene()
	if err := c.normalizeFonts(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AudioCacheDir) == "" {
		c.Paths.AudioCacheDir = defaultAudioCacheDir
	}
	if c.Paths.AudioCacheDir, err = expandPath(c.Paths.AudioCacheDir); err != nil {
		return fmt.Errorf("paths.audio_cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataFile) == "" {
		c.Paths.DataFile = defaultDataFile
	}
	if c.Paths.DataFile, err = expandPath(c.Paths.DataFile); err != nil {
		return fmt.Errorf("paths.data_file: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeReciter() {
	c.Reciter.CatalogURL = strings.TrimSpace(c.Reciter.CatalogURL)
	if c.Reciter.CatalogURL == "" {
		c.Reciter.CatalogURL = defaultCatalogURL
	}
	c.Reciter.BaseURL = strings.TrimRight(strings.TrimSpace(c.Reciter.BaseURL), "/")
	if c.Reciter.BaseURL == "" {
		c.Reciter.BaseURL = defaultRecitationBaseURL
	}
	if c.Reciter.RequestIntervalMS < 0 {
		c.Reciter.RequestIntervalMS = 0
	}
	if c.Reciter.MaxRetries <= 0 {
		c.Reciter.MaxRetries = defaultMaxRetries
	}
	if c.Reciter.DownloadTimeout <= 0 {
		c.Reciter.DownloadTimeout = defaultDownloadTimeout
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.Preset = strings.ToLower(strings.TrimSpace(c.Audio.Preset))
	if c.Audio.Preset == "" {
		c.Audio.Preset = defaultAudioPreset
	}
	if c.Audio.MinSilenceMS <= 0 {
		c.Audio.MinSilenceMS = defaultMinSilenceMS
	}
	if c.Audio.FadeMS < 0 {
		c.Audio.FadeMS = 0
	}
	if c.Audio.PaddingMS < 0 {
		c.Audio.PaddingMS = 0
	}
	if c.Audio.CrossfadeMS < 0 {
		c.Audio.CrossfadeMS = 0
	}
}

func (c *Config) normalizeScene() {
	c.Scene.BackgroundStyle = strings.ToLower(strings.TrimSpace(c.Scene.BackgroundStyle))
	if c.Scene.BackgroundStyle == "" {
		c.Scene.BackgroundStyle = defaultBackgroundStyle
	}
	c.Scene.ColorScheme = strings.ToLower(strings.TrimSpace(c.Scene.ColorScheme))
	if c.Scene.ColorScheme == "" {
		c.Scene.ColorScheme = defaultColorScheme
	}
	c.Scene.GradientDirection = strings.ToLower(strings.TrimSpace(c.Scene.GradientDirection))
	if c.Scene.GradientDirection == "" {
		c.Scene.GradientDirection = defaultGradientDirection
	}
	c.Scene.AspectRatio = strings.TrimSpace(c.Scene.AspectRatio)
	if c.Scene.AspectRatio == "" {
		c.Scene.AspectRatio = defaultAspectRatio
	}
	c.Scene.Quality = strings.ToLower(strings.TrimSpace(c.Scene.Quality))
	if c.Scene.Quality == "" {
		c.Scene.Quality = defaultQuality
	}
	if c.Scene.FrameRate <= 0 {
		c.Scene.FrameRate = defaultFrameRate
	}
	c.Scene.Mode = strings.ToLower(strings.TrimSpace(c.Scene.Mode))
	if c.Scene.Mode == "" {
		c.Scene.Mode = defaultSceneMode
	}
}

func (c *Config) normalizeFonts() error {
	var err error
	c.Fonts.VerseFont = strings.TrimSpace(c.Fonts.VerseFont)
	if c.Fonts.VerseFont != "" {
		if c.Fonts.VerseFont, err = expandPath(c.Fonts.VerseFont); err != nil {
			return fmt.Errorf("fonts.verse_font: %w", err)
		}
	}
	c.Fonts.InfoFont = strings.TrimSpace(c.Fonts.InfoFont)
	if c.Fonts.InfoFont != "" {
		if c.Fonts.InfoFont, err = expandPath(c.Fonts.InfoFont); err != nil {
			return fmt.Errorf("fonts.info_font: %w", err)
		}
	}
	if c.Fonts.FontSize <= 0 {
		c.Fonts.FontSize = defaultFontSize
	}
	if c.Fonts.InfoFontSize <= 0 {
		c.Fonts.InfoFontSize = defaultInfoFontSize
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
