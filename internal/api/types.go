package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueJob describes a render job in a transport-friendly format.
type QueueJob struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Surah        int             `json:"surah"`
	StartAyah    int             `json:"startAyah"`
	EndAyah      int             `json:"endAyah"`
	ReciterID    int             `json:"reciterId"`
	ReciterName  string          `json:"reciterName,omitempty"`
	Status       string          `json:"status"`
	Progress     QueueProgress   `json:"progress"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	CreatedAt    string          `json:"createdAt,omitempty"`
	UpdatedAt    string          `json:"updatedAt,omitempty"`
	Fingerprint  string          `json:"fingerprint,omitempty"`
	AudioFile    string          `json:"audioFile,omitempty"`
	RenderedFile string          `json:"renderedFile,omitempty"`
	FinalFile    string          `json:"finalFile,omitempty"`
	Scene        json.RawMessage `json:"scene,omitempty"`
	Durations    json.RawMessage `json:"durations,omitempty"`
}

// QueueProgress captures stage progress information for a render job.
type QueueProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *QueueJob      `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// GalleryEntry describes one rendered file in the gallery.
type GalleryEntry struct {
	Path        string  `json:"path"`
	Title       string  `json:"title"`
	Surah       int     `json:"surah,omitempty"`
	StartAyah   int     `json:"startAyah,omitempty"`
	EndAyah     int     `json:"endAyah,omitempty"`
	Reciter     string  `json:"reciter,omitempty"`
	SizeBytes   int64   `json:"sizeBytes"`
	DurationSec float64 `json:"durationSec,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// ReciterEntry describes one catalog reciter.
type ReciterEntry struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Subfolder string `json:"subfolder"`
	Bitrate   string `json:"bitrate"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// QueueListResponse wraps a collection of render jobs for API responses.
type QueueListResponse struct {
	Jobs []QueueJob `json:"jobs"`
}

// QueueJobResponse wraps a single render job.
type QueueJobResponse struct {
	Job QueueJob `json:"job"`
}

// AddJobRequest is the payload for enqueueing a verse range.
type AddJobRequest struct {
	Surah     int             `json:"surah"`
	StartAyah int             `json:"startAyah"`
	EndAyah   int             `json:"endAyah"`
	ReciterID int             `json:"reciterId,omitempty"`
	Scene     json.RawMessage `json:"scene,omitempty"`
}
