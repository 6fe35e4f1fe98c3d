package api

import (
	"context"

	"alforqan/internal/queue"
)

// QueueStore abstracts the queue persistence operations the facade needs.
type QueueStore interface {
	NewJob(ctx context.Context, job *queue.Job) (*queue.Job, error)
	GetByID(ctx context.Context, id int64) (*queue.Job, error)
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	Health(ctx context.Context) (queue.HealthSummary, error)
	RetryFailed(ctx context.Context, ids ...int64) (int64, error)
	Remove(ctx context.Context, id int64) (bool, error)
	Clear(ctx context.Context) (int64, error)
	ClearCompleted(ctx context.Context) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
}

// QueueService exposes queue operations returning API DTOs. It is shared by
// the HTTP server and the CLI so both render the same view of the queue.
type QueueService struct {
	store QueueStore
}

// NewQueueService constructs a QueueService around the provided store.
func NewQueueService(store QueueStore) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

// Add enqueues a verse range, returning the resulting job. Requests matching
// an active job's fingerprint return that job instead of a duplicate.
func (s *QueueService) Add(ctx context.Context, request AddJobRequest) (*QueueJob, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	job, err := s.store.NewJob(ctx, &queue.Job{
		Surah:     request.Surah,
		StartAyah: request.StartAyah,
		EndAyah:   request.EndAyah,
		ReciterID: request.ReciterID,
		SceneJSON: string(request.Scene),
	})
	if err != nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}

// List returns render jobs filtered by status, newest first.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]QueueJob, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return SortJobsNewestFirst(FromJobs(jobs)), nil
}

// Stats returns queue summary counts keyed by status string.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(stats), nil
}

// Health returns aggregate queue lifecycle counts.
func (s *QueueService) Health(ctx context.Context) (queue.HealthSummary, error) {
	if s == nil || s.store == nil {
		return queue.HealthSummary{}, nil
	}
	return s.store.Health(ctx)
}

// Describe fetches a single render job.
func (s *QueueService) Describe(ctx context.Context, id int64) (*QueueJob, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	job, err := s.store.GetByID(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}

// Retry resets failed jobs to pending. Without IDs, every failed job retries.
func (s *QueueService) Retry(ctx context.Context, ids ...int64) (int64, error) {
	if s == nil || s.store == nil {
		return 0, nil
	}
	return s.store.RetryFailed(ctx, ids...)
}

// Remove deletes a single job.
func (s *QueueService) Remove(ctx context.Context, id int64) (bool, error) {
	if s == nil || s.store == nil {
		return false, nil
	}
	return s.store.Remove(ctx, id)
}

// ClearMode selects which jobs Clear removes.
type ClearMode string

const (
	ClearAll       ClearMode = "all"
	ClearCompleted ClearMode = "completed"
	ClearFailed    ClearMode = "failed"
)

// Clear removes jobs per mode and returns the count removed.
func (s *QueueService) Clear(ctx context.Context, mode ClearMode) (int64, error) {
	if s == nil || s.store == nil {
		return 0, nil
	}
	switch mode {
	case ClearCompleted:
		return s.store.ClearCompleted(ctx)
	case ClearFailed:
		return s.store.ClearFailed(ctx)
	default:
		return s.store.Clear(ctx)
	}
}
