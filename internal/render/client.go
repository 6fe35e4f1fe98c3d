package render

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"alforqan/internal/scene"
	"alforqan/internal/services"
)

// commandContext is swapped in tests to intercept process execution.
var commandContext = exec.CommandContext

// ProgressUpdate reports renderer progress while a scene encodes.
type ProgressUpdate struct {
	Percent float64
	Stage   string
	Message string
}

// ProgressCallback receives renderer progress updates.
type ProgressCallback func(ProgressUpdate)

// Client renders a composed scene into a video or image file.
type Client interface {
	Render(ctx context.Context, spec scene.Spec, audioPath, outputDir string, progress ProgressCallback) (string, error)
}

// Option configures the FFmpeg client.
type Option func(*FFmpeg)

// WithBinary overrides the ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		f.binary = binary
	}
}

// FFmpeg renders scenes by driving the ffmpeg binary directly.
type FFmpeg struct {
	binary string
}

func NewFFmpeg(opts ...Option) *FFmpeg {
	client := &FFmpeg{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

var _ Client = (*FFmpeg)(nil)

// Render encodes the scene. Video mode muxes the merged audio track; image
// mode writes a single PNG frame. The returned path lives under outputDir.
func (f *FFmpeg) Render(ctx context.Context, spec scene.Spec, audioPath, outputDir string, progress ProgressCallback) (string, error) {
	if len(spec.Verses) == 0 {
		return "", services.Wrap(services.ErrValidation, "render", "render", "scene has no verses", nil)
	}
	if outputDir == "" {
		return "", services.Wrap(services.ErrValidation, "render", "render", "output directory is required", nil)
	}
	if spec.Mode == scene.ModeVideo && audioPath == "" {
		return "", services.Wrap(services.ErrValidation, "render", "render", "video mode requires an audio track", nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	outputPath := filepath.Join(outputDir, "rendered.mp4")
	if spec.Mode == scene.ModeImage {
		outputPath = filepath.Join(outputDir, "rendered.png")
	}

	args, err := buildArgs(spec, audioPath, outputPath)
	if err != nil {
		return "", err
	}

	if progress != nil {
		progress(ProgressUpdate{Percent: 0, Stage: "encoding", Message: "starting renderer"})
	}
	if err := f.execute(ctx, args, spec.Timeline.Total, progress); err != nil {
		return "", err
	}
	if progress != nil {
		progress(ProgressUpdate{Percent: 100, Stage: "complete", Message: "render finished"})
	}
	return outputPath, nil
}

// execute runs ffmpeg and translates its -progress stream into callbacks.
// Progress and diagnostics arrive interleaved on the same pipe; anything
// that is not a progress pair is kept as the error tail.
func (f *FFmpeg) execute(ctx context.Context, args []string, totalSeconds float64, progress ProgressCallback) error {
	cmd := commandContext(ctx, f.binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create renderer pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "start", "launch ffmpeg", err)
	}

	var tail []string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if update, ok := parseProgressLine(line, totalSeconds); ok {
			if progress != nil && update.Percent > 0 {
				progress(update)
			}
			continue
		}
		tail = append(tail, line)
		if len(tail) > 20 {
			tail = tail[1:]
		}
	}

	if err := cmd.Wait(); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "encode",
			fmt.Sprintf("ffmpeg failed: %s", strings.Join(tail, " | ")), err)
	}
	return nil
}

// parseProgressLine interprets one key=value pair from ffmpeg's -progress
// output. Only time keys produce an update; the terminal progress=end pair
// is reported as the encoding stage finishing.
func parseProgressLine(line string, totalSeconds float64) (ProgressUpdate, bool) {
	key, value, found := strings.Cut(line, "=")
	if !found || strings.ContainsAny(key, " \t") {
		return ProgressUpdate{}, false
	}

	switch key {
	case "out_time_us", "out_time_ms":
		micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || totalSeconds <= 0 {
			return ProgressUpdate{}, true
		}
		percent := float64(micros) / 1e6 / totalSeconds * 100
		if percent > 99 {
			percent = 99
		}
		return ProgressUpdate{
			Percent: percent,
			Stage:   "encoding",
			Message: fmt.Sprintf("encoded %.1fs of %.1fs", float64(micros)/1e6, totalSeconds),
		}, true
	case "progress":
		if strings.TrimSpace(value) == "end" {
			return ProgressUpdate{Percent: 99, Stage: "encoding", Message: "finalizing output"}, true
		}
		return ProgressUpdate{}, true
	case "frame", "fps", "bitrate", "total_size", "out_time", "dup_frames", "drop_frames", "speed", "stream_0_0_q":
		return ProgressUpdate{}, true
	}
	return ProgressUpdate{}, false
}
