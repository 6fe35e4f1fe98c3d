package audio

import (
	"context"
	"fmt"
	"math"

	"alforqan/internal/media/ffprobe"
	"alforqan/internal/services"
)

// Prober reads clip durations through ffprobe.
type Prober struct {
	binary string
}

func NewProber(binary string) *Prober {
	return &Prober{binary: binary}
}

// Duration returns the clip length in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, p.binary, path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "audio", "probe", "inspect clip", err)
	}
	duration := result.DurationSeconds()
	if duration <= 0 {
		return 0, services.Wrap(services.ErrExternalTool, "audio", "probe", "clip has no duration", nil)
	}
	return duration, nil
}

// FormatDuration renders seconds as HH:MM:SS, rounding down.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}
