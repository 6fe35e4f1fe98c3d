package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	validAspectRatios = map[string]struct{}{
		"16:9": {},
		"9:16": {},
		"1:1":  {},
	}
	validQualities = map[string]struct{}{
		"low":        {},
		"medium":     {},
		"high":       {},
		"production": {},
	}
	validAudioPresets = map[string]struct{}{
		"default":      {},
		"conservative": {},
		"aggressive":   {},
	}
	validSceneModes = map[string]struct{}{
		"video": {},
		"image": {},
	}
	validGradientDirections = map[string]struct{}{
		"up":         {},
		"down":       {},
		"left":       {},
		"right":      {},
		"up_left":    {},
		"up_right":   {},
		"down_left":  {},
		"down_right": {},
	}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateReciter(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateScene(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateReciter() error {
	if c.Reciter.DefaultID <= 0 {
		return errors.New("reciter.default_id must be positive")
	}
	if strings.TrimSpace(c.Reciter.BaseURL) == "" {
		return errors.New("reciter.base_url must be set")
	}
	if strings.TrimSpace(c.Reciter.CatalogURL) == "" {
		return errors.New("reciter.catalog_url must be set")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.TargetDBFS > 0 {
		return errors.New("audio.target_dbfs must be zero or negative")
	}
	if c.Audio.SilenceThresholdDB >= 0 {
		return errors.New("audio.silence_threshold_db must be negative")
	}
	if _, ok := validAudioPresets[c.Audio.Preset]; !ok {
		return fmt.Errorf("audio.preset must be one of default, conservative, aggressive (got %q)", c.Audio.Preset)
	}
	return nil
}

func (c *Config) validateScene() error {
	if _, ok := validAspectRatios[c.Scene.AspectRatio]; !ok {
		return fmt.Errorf("scene.aspect_ratio must be one of 16:9, 9:16, 1:1 (got %q)", c.Scene.AspectRatio)
	}
	if _, ok := validQualities[c.Scene.Quality]; !ok {
		return fmt.Errorf("scene.quality must be one of low, medium, high, production (got %q)", c.Scene.Quality)
	}
	if _, ok := validSceneModes[c.Scene.Mode]; !ok {
		return fmt.Errorf("scene.mode must be video or image (got %q)", c.Scene.Mode)
	}
	if _, ok := validGradientDirections[c.Scene.GradientDirection]; !ok {
		return fmt.Errorf("scene.gradient_direction %q is not recognized", c.Scene.GradientDirection)
	}
	if c.Scene.FrameRate <= 0 || c.Scene.FrameRate > 120 {
		return errors.New("scene.frame_rate must be between 1 and 120")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"reciter.download_timeout":      c.Reciter.DownloadTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.DedupWindowSeconds < 0 {
		return errors.New("notifications.dedup_window_seconds must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
