package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"alforqan/internal/config"
	"alforqan/internal/logging"
	"alforqan/internal/services"
)

// commandContext is swapped in tests to intercept process execution.
var commandContext = exec.CommandContext

// Settings controls the per-clip cleanup pipeline and the merge crossfade.
type Settings struct {
	TargetDBFS         float64
	SilenceThresholdDB int
	MinSilenceMS       int
	FadeMS             int
	PaddingMS          int
	CrossfadeMS        int
}

var presets = map[string]Settings{
	"default":      {TargetDBFS: -20, SilenceThresholdDB: -50, MinSilenceMS: 300, FadeMS: 20, PaddingMS: 40, CrossfadeMS: 250},
	"conservative": {TargetDBFS: -20, SilenceThresholdDB: -60, MinSilenceMS: 500, FadeMS: 30, PaddingMS: 100, CrossfadeMS: 250},
	"aggressive":   {TargetDBFS: -20, SilenceThresholdDB: -40, MinSilenceMS: 200, FadeMS: 10, PaddingMS: 25, CrossfadeMS: 250},
}

// Preset returns a named cleanup preset.
func Preset(name string) (Settings, bool) {
	s, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// PresetNames lists the available preset names.
func PresetNames() []string {
	return []string{"default", "conservative", "aggressive"}
}

// SettingsFromConfig builds settings from the configured audio section.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		TargetDBFS:         cfg.Audio.TargetDBFS,
		SilenceThresholdDB: int(cfg.Audio.SilenceThresholdDB),
		MinSilenceMS:       cfg.Audio.MinSilenceMS,
		FadeMS:             cfg.Audio.FadeMS,
		PaddingMS:          cfg.Audio.PaddingMS,
		CrossfadeMS:        cfg.Audio.CrossfadeMS,
	}
}

// MergeResult describes the merged track and the screen time each clip earns.
// Clips after the first lose the crossfade overlap from their effective time.
type MergeResult struct {
	OutputPath         string
	TotalDuration      float64
	ClipDurations      []float64
	EffectiveDurations []float64
}

// Option configures a Processor.
type Option func(*Processor)

// WithBinary overrides the ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(p *Processor) {
		p.binary = binary
	}
}

// WithProber overrides the duration prober.
func WithProber(prober *Prober) Option {
	return func(p *Processor) {
		p.prober = prober
	}
}

// Processor cleans up recitation clips and merges them into one track.
type Processor struct {
	binary   string
	settings Settings
	prober   *Prober
	logger   *slog.Logger
}

func NewProcessor(cfg *config.Config, settings Settings, logger *slog.Logger, opts ...Option) *Processor {
	p := &Processor{
		binary:   cfg.FFmpegBinary(),
		settings: settings,
		prober:   NewProber(cfg.FFprobeBinary()),
		logger:   logging.NewComponentLogger(logger, "audio-processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Settings() Settings {
	return p.settings
}

var meanVolumePattern = regexp.MustCompile(`mean_volume:\s*(-?[0-9.]+)\s*dB`)

// MeasureMeanVolume runs a volumedetect pass and returns the mean level in dBFS.
func (p *Processor) MeasureMeanVolume(ctx context.Context, path string) (float64, error) {
	output, err := p.run(ctx, "-hide_banner", "-i", path, "-af", "volumedetect", "-f", "null", "-")
	if err != nil {
		return 0, err
	}
	match := meanVolumePattern.FindStringSubmatch(output)
	if match == nil {
		return 0, services.Wrap(services.ErrExternalTool, "audio", "measure", "volumedetect reported no mean volume", nil)
	}
	level, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "audio", "measure", "parse mean volume", err)
	}
	return level, nil
}

// Prepare normalizes and trims each clip into workDir, in input order.
func (p *Processor) Prepare(ctx context.Context, inputs []string, workDir string) ([]string, error) {
	if len(inputs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "audio", "prepare", "no input clips", nil)
	}
	prepared := make([]string, 0, len(inputs))
	for i, input := range inputs {
		output := filepath.Join(workDir, fmt.Sprintf("prepared_%03d.mp3", i))
		if err := p.prepareClip(ctx, input, output); err != nil {
			return nil, err
		}
		prepared = append(prepared, output)
	}
	return prepared, nil
}

// prepareClip applies gain, silence trimming, fades, and padding in one pass.
func (p *Processor) prepareClip(ctx context.Context, input, output string) error {
	mean, err := p.MeasureMeanVolume(ctx, input)
	if err != nil {
		return err
	}
	gain := p.settings.TargetDBFS - mean
	filter := p.clipFilter(gain)

	p.logger.Debug("clip prepared",
		logging.String("input", filepath.Base(input)),
		logging.Float64("mean_dbfs", mean),
		logging.Float64("gain_db", gain),
	)

	_, err = p.run(ctx, "-hide_banner", "-y", "-i", input, "-af", filter, output)
	return err
}

// clipFilter builds the cleanup chain. Trailing silence is trimmed by
// reversing, trimming again, and reversing back; the tail fade rides along
// as a fade-in on the reversed stream.
func (p *Processor) clipFilter(gain float64) string {
	threshold := p.settings.SilenceThresholdDB
	minSilence := float64(p.settings.MinSilenceMS) / 1000
	fade := float64(p.settings.FadeMS) / 1000
	padding := float64(p.settings.PaddingMS) / 1000

	trim := func() string {
		return fmt.Sprintf("silenceremove=start_periods=1:start_threshold=%ddB:start_silence=%.3f", threshold, minSilence)
	}
	stages := []string{
		fmt.Sprintf("volume=%+.2fdB", gain),
		trim(),
		"areverse",
		trim(),
		fmt.Sprintf("afade=t=in:d=%.3f", fade),
		"areverse",
		fmt.Sprintf("afade=t=in:d=%.3f", fade),
		fmt.Sprintf("adelay=%d:all=1", p.settings.PaddingMS),
		fmt.Sprintf("apad=pad_dur=%.3f", padding),
	}
	return strings.Join(stages, ",")
}

// Merge crossfades the prepared clips into a single track and reports per-clip
// durations alongside the effective durations used for verse timing.
func (p *Processor) Merge(ctx context.Context, inputs []string, output string) (MergeResult, error) {
	if len(inputs) == 0 {
		return MergeResult{}, services.Wrap(services.ErrValidation, "audio", "merge", "no input clips", nil)
	}

	durations := make([]float64, 0, len(inputs))
	for _, input := range inputs {
		d, err := p.prober.Duration(ctx, input)
		if err != nil {
			return MergeResult{}, err
		}
		durations = append(durations, d)
	}

	crossfade := float64(p.settings.CrossfadeMS) / 1000
	if len(inputs) == 1 {
		if _, err := p.run(ctx, "-hide_banner", "-y", "-i", inputs[0], "-c", "copy", output); err != nil {
			return MergeResult{}, err
		}
		return MergeResult{
			OutputPath:         output,
			TotalDuration:      durations[0],
			ClipDurations:      durations,
			EffectiveDurations: append([]float64(nil), durations...),
		}, nil
	}

	args := []string{"-hide_banner", "-y"}
	for _, input := range inputs {
		args = append(args, "-i", input)
	}
	args = append(args, "-filter_complex", crossfadeGraph(len(inputs), crossfade), "-map", "[out]", output)
	if _, err := p.run(ctx, args...); err != nil {
		return MergeResult{}, err
	}

	effective := make([]float64, len(durations))
	total := 0.0
	for i, d := range durations {
		effective[i] = d
		if i > 0 {
			effective[i] = d - crossfade
		}
		if effective[i] < 0 {
			effective[i] = 0
		}
		total += effective[i]
	}
	return MergeResult{
		OutputPath:         output,
		TotalDuration:      total,
		ClipDurations:      durations,
		EffectiveDurations: effective,
	}, nil
}

// crossfadeGraph chains acrossfade filters across n inputs.
func crossfadeGraph(n int, crossfade float64) string {
	var sb strings.Builder
	prev := "[0:a]"
	for i := 1; i < n; i++ {
		label := fmt.Sprintf("[x%d]", i)
		if i == n-1 {
			label = "[out]"
		}
		fmt.Fprintf(&sb, "%s[%d:a]acrossfade=d=%.3f%s", prev, i, crossfade, label)
		if i < n-1 {
			sb.WriteString(";")
		}
		prev = label
	}
	return sb.String()
}

// run executes ffmpeg and returns its combined output.
func (p *Processor) run(ctx context.Context, args ...string) (string, error) {
	cmd := commandContext(ctx, p.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "audio", "ffmpeg",
			fmt.Sprintf("%s: %s", err, outputTail(string(output), 12)), nil)
	}
	return string(output), nil
}

// outputTail keeps the last n non-empty lines of tool output for errors.
func outputTail(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	kept := make([]string, 0, n)
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, strings.TrimSpace(line))
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, " | ")
}
