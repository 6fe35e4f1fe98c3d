package stage

import (
	"encoding/json"
	"strings"

	"alforqan/internal/queue"
	"alforqan/internal/scene"
	"alforqan/internal/services"
)

// SceneOverrides decodes the per-job scene option overrides stored on a queue
// job, merged over the provided defaults. An empty payload returns the
// defaults unchanged. On failure it returns a services.ErrValidation suitable
// for stage Execute methods.
func SceneOverrides(defaults scene.Options, job *queue.Job) (scene.Options, error) {
	raw := strings.TrimSpace(job.SceneJSON)
	if raw == "" {
		return defaults, nil
	}
	merged := defaults
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		return scene.Options{}, services.Wrap(
			services.ErrValidation, "stage", "decode scene overrides",
			"Scene overrides stored on the job are invalid; re-add the job", err)
	}
	return merged, nil
}

// Durations decodes the per-verse effective durations persisted by the audio
// stage. On failure it returns a services.ErrValidation suitable for stage
// Execute methods.
func Durations(job *queue.Job) ([]float64, error) {
	raw := strings.TrimSpace(job.DurationsJSON)
	if raw == "" {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "decode durations",
			"Verse durations missing; rerun audio preparation", nil)
	}
	var durations []float64
	if err := json.Unmarshal([]byte(raw), &durations); err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "decode durations",
			"Verse durations stored on the job are invalid; rerun audio preparation", err)
	}
	return durations, nil
}

// EncodeDurations serializes per-verse durations for persistence on a job.
func EncodeDurations(durations []float64) (string, error) {
	encoded, err := json.Marshal(durations)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "stage", "encode durations", "serialize durations", err)
	}
	return string(encoded), nil
}
