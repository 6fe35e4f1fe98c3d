package queue

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a render job.
type Status string

const (
	StatusPending        Status = "pending"
	StatusFetching       Status = "fetching"
	StatusFetched        Status = "fetched"
	StatusPreparingAudio Status = "preparing_audio"
	StatusAudioReady     Status = "audio_ready"
	StatusRendering      Status = "rendering"
	StatusRendered       Status = "rendered"
	StatusOrganizing     Status = "organizing"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
)

// DaemonStopReason is the error message set when jobs are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusFetching,
	StatusFetched,
	StatusPreparingAudio,
	StatusAudioReady,
	StatusRendering,
	StatusRendered,
	StatusOrganizing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusFetching:       {},
	StatusPreparingAudio: {},
	StatusRendering:      {},
	StatusOrganizing:     {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions return interrupted jobs to the last durable state.
var stageRollbackTransitions = []statusTransition{
	{from: StatusFetching, to: StatusPending},
	{from: StatusPreparingAudio, to: StatusFetched},
	{from: StatusRendering, to: StatusAudioReady},
	{from: StatusOrganizing, to: StatusRendered},
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// Job represents a verse-range render job persisted in SQLite.
type Job struct {
	ID              int64
	Surah           int
	StartAyah       int
	EndAyah         int
	ReciterID       int
	ReciterName     string
	Title           string
	Status          Status
	Fingerprint     string
	AudioFile       string
	RenderedFile    string
	FinalFile       string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	SceneJSON       string
	DurationsJSON   string
	LastHeartbeat   *time.Time
}

// Fingerprint derives the duplicate-suppression key for a verse range request.
func Fingerprint(reciterID, surah, startAyah, endAyah int) string {
	key := fmt.Sprintf("%d_%d_%d_%d", reciterID, surah, startAyah, endAyah)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (j Job) IsProcessing() bool {
	_, ok := processingStatuses[j.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// VerseRange renders the job's surah and ayah span, e.g. "2:255" or "1:1-7".
func (j Job) VerseRange() string {
	if j.StartAyah == j.EndAyah {
		return fmt.Sprintf("%d:%d", j.Surah, j.StartAyah)
	}
	return fmt.Sprintf("%d:%d-%d", j.Surah, j.StartAyah, j.EndAyah)
}

// AyahCount returns the number of verses covered by the job.
func (j Job) AyahCount() int {
	if j.EndAyah < j.StartAyah {
		return 0
	}
	return j.EndAyah - j.StartAyah + 1
}

// SetProgress updates all three progress fields atomically.
func (j *Job) SetProgress(stage, message string, percent float64) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (j *Job) SetProgressComplete(stage, message string) {
	j.SetProgress(stage, message, 100)
}

// SetFailed marks the job as failed with the given error message.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressPercent = 0
	j.ProgressMessage = message
	j.LastHeartbeat = nil
	j.ProgressStage = "Failed"
}

// StageKey returns the normalized stage identifier used in API/CLI presentation.
func (s Status) StageKey() string {
	switch s {
	case "":
		return ""
	case StatusPending:
		return "planned"
	case StatusCompleted:
		return "final"
	default:
		if _, ok := statusSet[s]; ok {
			return string(s)
		}
		return ""
	}
}
