package config

const (
	defaultStagingDir          = "~/.local/share/alforqan/staging"
	defaultOutputDir           = "~/alforqan"
	defaultAudioCacheDir       = "~/.local/share/alforqan/cache/audio"
	defaultLogDir              = "~/.local/share/alforqan/logs"
	defaultDataFile            = "~/.local/share/alforqan/data/hafs_smart_v8.json"
	defaultAPIBind             = "127.0.0.1:7853"
	defaultLogRetentionDays    = 60
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultReciterID           = 7
	defaultCatalogURL          = "https://everyayah.com/data/recitations.js"
	defaultRecitationBaseURL   = "https://everyayah.com/data"
	defaultRequestIntervalMS   = 250
	defaultMaxRetries          = 3
	defaultDownloadTimeout     = 60
	defaultTargetDBFS          = -20.0
	defaultSilenceThresholdDB  = -40.0
	defaultMinSilenceMS        = 100
	defaultFadeMS              = 50
	defaultPaddingMS           = 200
	defaultCrossfadeMS         = 250
	defaultAudioPreset         = "default"
	defaultBackgroundStyle     = "gradient"
	defaultColorScheme         = "desert_sunset"
	defaultGradientDirection   = "down"
	defaultAspectRatio         = "16:9"
	defaultQuality             = "high"
	defaultFrameRate           = 30
	defaultSceneMode           = "video"
	defaultFontSize            = 48
	defaultInfoFontSize        = 28
	defaultNotifyDedupSeconds  = 600
	defaultHeartbeatInterval   = 15
	defaultHeartbeatTimeout    = 120
	defaultQueuePollInterval   = 5
	defaultErrorRetryInterval  = 10
	defaultNotifyRequestExpiry = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:    defaultStagingDir,
			OutputDir:     defaultOutputDir,
			AudioCacheDir: defaultAudioCacheDir,
			LogDir:        defaultLogDir,
			DataFile:      defaultDataFile,
			APIBind:       defaultAPIBind,
		},
		Reciter: Reciter{
			DefaultID:         defaultReciterID,
			CatalogURL:        defaultCatalogURL,
			BaseURL:           defaultRecitationBaseURL,
			RequestIntervalMS: defaultRequestIntervalMS,
			MaxRetries:        defaultMaxRetries,
			DownloadTimeout:   defaultDownloadTimeout,
		},
		Audio: Audio{
			TargetDBFS:         defaultTargetDBFS,
			SilenceThresholdDB: defaultSilenceThresholdDB,
			MinSilenceMS:       defaultMinSilenceMS,
			FadeMS:             defaultFadeMS,
			PaddingMS:          defaultPaddingMS,
			CrossfadeMS:        defaultCrossfadeMS,
			Preset:             defaultAudioPreset,
		},
		Scene: Scene{
			BackgroundStyle:   defaultBackgroundStyle,
			ColorScheme:       defaultColorScheme,
			Gradient:          true,
			GradientDirection: defaultGradientDirection,
			AspectRatio:       defaultAspectRatio,
			Quality:           defaultQuality,
			FrameRate:         defaultFrameRate,
			Mode:              defaultSceneMode,
		},
		Fonts: Fonts{
			FontSize:     defaultFontSize,
			InfoFontSize: defaultInfoFontSize,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyRequestExpiry,
			Queue:              true,
			Render:             true,
			Errors:             true,
			DedupWindowSeconds: defaultNotifyDedupSeconds,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
