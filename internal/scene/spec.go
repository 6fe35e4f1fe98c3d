package scene

import (
	"fmt"

	"alforqan/internal/config"
	"alforqan/internal/services"
)

// Mode selects the output kind.
type Mode string

const (
	ModeVideo Mode = "video"
	ModeImage Mode = "image"
)

// Options carries the style settings a scene is composed with, usually
// sourced from configuration and optionally overridden per job.
type Options struct {
	BackgroundStyle   string `json:"background_style"`
	ColorScheme       string `json:"color_scheme"`
	Gradient          bool   `json:"gradient"`
	GradientDirection string `json:"gradient_direction"`
	AspectRatio       string `json:"aspect_ratio"`
	Quality           string `json:"quality"`
	FrameRate         int    `json:"frame_rate"`
	Mode              string `json:"mode"`
	VerseFont         string `json:"verse_font,omitempty"`
	InfoFont          string `json:"info_font,omitempty"`
	FontSize          int    `json:"font_size"`
	InfoFontSize      int    `json:"info_font_size"`
}

// OptionsFromConfig copies the configured scene settings.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BackgroundStyle:   cfg.Scene.BackgroundStyle,
		ColorScheme:       cfg.Scene.ColorScheme,
		Gradient:          cfg.Scene.Gradient,
		GradientDirection: cfg.Scene.GradientDirection,
		AspectRatio:       cfg.Scene.AspectRatio,
		Quality:           cfg.Scene.Quality,
		FrameRate:         cfg.Scene.FrameRate,
		Mode:              cfg.Scene.Mode,
		VerseFont:         cfg.Fonts.VerseFont,
		InfoFont:          cfg.Fonts.InfoFont,
		FontSize:          cfg.Fonts.FontSize,
		InfoFontSize:      cfg.Fonts.InfoFontSize,
	}
}

// Verse is one displayed verse with its wrapped lines.
type Verse struct {
	Text  string   `json:"text"`
	Lines []string `json:"lines"`
	Chars int      `json:"chars"`
}

// Spec is the complete, render-ready description of a scene.
type Spec struct {
	Verses    []Verse           `json:"verses"`
	Info      string            `json:"info"`
	Durations []float64         `json:"durations"`
	Timeline  Timeline          `json:"timeline"`
	Style     BackgroundStyle   `json:"style"`
	Scheme    ColorScheme       `json:"scheme"`
	Gradient  bool              `json:"gradient"`
	Direction GradientDirection `json:"direction"`
	Geometry  Geometry          `json:"geometry"`
	Mode      Mode              `json:"mode"`

	VerseFont    string `json:"verse_font,omitempty"`
	InfoFont     string `json:"info_font,omitempty"`
	FontSize     int    `json:"font_size"`
	InfoFontSize int    `json:"info_font_size"`
}

// Build validates the options and composes a render-ready spec for the given
// verse texts, info line, and per-verse durations.
func Build(opts Options, verses []string, info string, durations []float64) (Spec, error) {
	if len(verses) == 0 {
		return Spec{}, services.Wrap(services.ErrValidation, "scene", "build", "no verses", nil)
	}
	if len(verses) != len(durations) {
		return Spec{}, services.Wrap(services.ErrValidation, "scene", "build",
			fmt.Sprintf("%d verses but %d durations", len(verses), len(durations)), nil)
	}

	mode := Mode(opts.Mode)
	switch mode {
	case ModeVideo, ModeImage:
	case "":
		mode = ModeVideo
	default:
		return Spec{}, services.Wrap(services.ErrValidation, "scene", "build",
			fmt.Sprintf("unknown mode %q", opts.Mode), nil)
	}
	if mode == ModeImage && len(verses) > 1 {
		return Spec{}, services.Wrap(services.ErrValidation, "scene", "build",
			"image mode supports a single verse", nil)
	}

	style, err := ParseBackgroundStyle(opts.BackgroundStyle)
	if err != nil {
		return Spec{}, err
	}
	scheme, err := ParseColorScheme(opts.ColorScheme)
	if err != nil {
		return Spec{}, err
	}
	direction, err := ParseGradientDirection(opts.GradientDirection)
	if err != nil {
		return Spec{}, err
	}
	geometry, err := ResolveGeometry(opts.AspectRatio, opts.Quality, opts.FrameRate)
	if err != nil {
		return Spec{}, err
	}

	maxChars := MaxLineChars(geometry.Width, opts.FontSize)
	wrapped := make([]Verse, 0, len(verses))
	charCounts := make([]int, 0, len(verses))
	for _, text := range verses {
		lines := Wrap(text, maxChars)
		if len(lines) == 0 {
			return Spec{}, services.Wrap(services.ErrValidation, "scene", "build", "empty verse text", nil)
		}
		chars := len([]rune(text))
		wrapped = append(wrapped, Verse{Text: text, Lines: lines, Chars: chars})
		charCounts = append(charCounts, chars)
	}

	return Spec{
		Verses:       wrapped,
		Info:         info,
		Durations:    append([]float64(nil), durations...),
		Timeline:     ComputeTimeline(durations, charCounts),
		Style:        style,
		Scheme:       scheme,
		Gradient:     opts.Gradient,
		Direction:    direction,
		Geometry:     geometry,
		Mode:         mode,
		VerseFont:    opts.VerseFont,
		InfoFont:     opts.InfoFont,
		FontSize:     opts.FontSize,
		InfoFontSize: opts.InfoFontSize,
	}, nil
}
