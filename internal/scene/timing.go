package scene

// TailDuration is held after the final verse fades out.
const TailDuration = 0.5

// Segment is the animation schedule for one verse. Write and Unwrite share
// the same length so the fade out mirrors the fade in, and
// Write+Scale+Hold+Unwrite always equals the verse duration.
type Segment struct {
	Index    int     `json:"index"`
	Start    float64 `json:"start"`
	Write    float64 `json:"write"`
	Scale    float64 `json:"scale"`
	Hold     float64 `json:"hold"`
	Unwrite  float64 `json:"unwrite"`
	Duration float64 `json:"duration"`
}

// End returns the absolute time at which the segment finishes.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// HoldStart returns the absolute time at which the verse is fully visible.
func (s Segment) HoldStart() float64 {
	return s.Start + s.Write + s.Scale
}

// UnwriteStart returns the absolute time at which the verse starts fading.
func (s Segment) UnwriteStart() float64 {
	return s.Start + s.Write + s.Scale + s.Hold
}

// Timeline schedules every verse back to back plus the closing tail.
type Timeline struct {
	Segments []Segment `json:"segments"`
	Tail     float64   `json:"tail"`
	Total    float64   `json:"total"`
}

// ComputeTimeline builds the animation schedule. Each verse writes in over
// min(0.35*duration, 0.04*chars) seconds, scales for min(0.1*duration, 0.3),
// holds for the remainder, then unwrites over the write time again.
func ComputeTimeline(durations []float64, charCounts []int) Timeline {
	segments := make([]Segment, 0, len(durations))
	cursor := 0.0
	for i, duration := range durations {
		if duration < 0 {
			duration = 0
		}
		chars := 0
		if i < len(charCounts) {
			chars = charCounts[i]
		}

		write := minFloat(duration*0.35, float64(chars)*0.04)
		scale := minFloat(duration*0.1, 0.3)
		hold := duration - 2*write - scale
		if hold < 0 {
			hold = 0
		}

		segments = append(segments, Segment{
			Index:    i,
			Start:    cursor,
			Write:    write,
			Scale:    scale,
			Hold:     hold,
			Unwrite:  write,
			Duration: write + scale + hold + write,
		})
		cursor += segments[i].Duration
	}
	return Timeline{Segments: segments, Tail: TailDuration, Total: cursor + TailDuration}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
