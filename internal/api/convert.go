package api

import (
	"encoding/json"
	"slices"
	"sort"
	"time"

	"alforqan/internal/organizer"
	"alforqan/internal/queue"
	"alforqan/internal/reciters"
	"alforqan/internal/stage"
	"alforqan/internal/workflow"
)

// FromJob converts a queue record to its API representation.
func FromJob(job *queue.Job) QueueJob {
	if job == nil {
		return QueueJob{}
	}

	dto := QueueJob{
		ID:          job.ID,
		Title:       job.Title,
		Surah:       job.Surah,
		StartAyah:   job.StartAyah,
		EndAyah:     job.EndAyah,
		ReciterID:   job.ReciterID,
		ReciterName: job.ReciterName,
		Status:      string(job.Status),
		Progress: QueueProgress{
			Stage:   job.ProgressStage,
			Percent: job.ProgressPercent,
			Message: job.ProgressMessage,
		},
		ErrorMessage: job.ErrorMessage,
		Fingerprint:  job.Fingerprint,
		AudioFile:    job.AudioFile,
		RenderedFile: job.RenderedFile,
		FinalFile:    job.FinalFile,
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if raw := job.SceneJSON; raw != "" {
		dto.Scene = json.RawMessage(raw)
	}
	if raw := job.DurationsJSON; raw != "" {
		dto.Durations = json.RawMessage(raw)
	}
	return dto
}

// FromJobs converts a slice of queue records into API DTOs.
func FromJobs(jobs []*queue.Job) []QueueJob {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]QueueJob, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := make(map[string]int, len(summary.QueueStats))
	for status, count := range summary.QueueStats {
		stats[string(status)] = count
	}

	wf := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  stats,
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastJob != nil {
		last := FromJob(summary.LastJob)
		wf.LastJob = &last
	}
	return wf
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FromGalleryEntry converts an organizer gallery entry into a DTO.
func FromGalleryEntry(entry organizer.Entry) GalleryEntry {
	manifest := entry.Manifest
	dto := GalleryEntry{
		Path:      entry.Path,
		Title:     manifest.Title,
		Surah:     manifest.Surah,
		StartAyah: manifest.StartAyah,
		EndAyah:   manifest.EndAyah,
		Reciter:   manifest.Reciter,
		SizeBytes: manifest.SizeBytes,
	}
	for _, d := range manifest.Durations {
		dto.DurationSec += d
	}
	if !manifest.CreatedAt.IsZero() {
		dto.CreatedAt = manifest.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromGalleryEntries converts a gallery listing into DTOs.
func FromGalleryEntries(entries []organizer.Entry) []GalleryEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]GalleryEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromGalleryEntry(entry))
	}
	return out
}

// FromReciters converts catalog reciters into DTOs.
func FromReciters(list []reciters.Reciter) []ReciterEntry {
	if len(list) == 0 {
		return nil
	}
	out := make([]ReciterEntry, 0, len(list))
	for _, r := range list {
		out = append(out, ReciterEntry{ID: r.ID, Name: r.Name, Subfolder: r.Subfolder, Bitrate: r.Bitrate})
	}
	return out
}

// MergeQueueStats produces a string-keyed representation of queue stats.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// SortJobsNewestFirst orders jobs by CreatedAt descending, breaking ties by
// ID descending.
func SortJobsNewestFirst(jobs []QueueJob) []QueueJob {
	if len(jobs) == 0 {
		return nil
	}
	sorted := make([]QueueJob, len(jobs))
	copy(sorted, jobs)
	sort.Slice(sorted, func(i, j int) bool {
		ti := ParseQueueTime(sorted[i].CreatedAt)
		tj := ParseQueueTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}

// ParseQueueTime parses an API timestamp, returning the zero time on failure.
func ParseQueueTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
