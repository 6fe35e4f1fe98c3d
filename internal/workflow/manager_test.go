package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"alforqan/internal/logging"
	"alforqan/internal/queue"
	"alforqan/internal/services"
	"alforqan/internal/stage"
	"alforqan/internal/testsupport"
	"alforqan/internal/workflow"
)

type stubStage struct {
	name        string
	prepareHook func(*queue.Job)
	executeHook func(*queue.Job)
	prepareErr  error
	executeErr  error
	health      stage.Health
}

func newStubStage(name string) *stubStage {
	return &stubStage{name: name, health: stage.Healthy(name)}
}

func (s *stubStage) Prepare(_ context.Context, job *queue.Job) error {
	if s.prepareHook != nil {
		s.prepareHook(job)
	}
	return s.prepareErr
}

func (s *stubStage) Execute(_ context.Context, job *queue.Job) error {
	if s.executeHook != nil {
		s.executeHook(job)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return s.health
}

type recordingNotifier struct {
	mu             sync.Mutex
	queueStarts    []int
	queueCompletes []struct{ processed, failed int }
	errors         []string
	completions    []string
	renders        []string
}

func (r *recordingNotifier) NotifyJobQueued(context.Context, string) error { return nil }

func (r *recordingNotifier) NotifyRenderStarted(context.Context, string) error { return nil }

func (r *recordingNotifier) NotifyRenderCompleted(_ context.Context, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders = append(r.renders, title)
	return nil
}

func (r *recordingNotifier) NotifyJobCompleted(_ context.Context, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions = append(r.completions, title)
	return nil
}

func (r *recordingNotifier) NotifyQueueStarted(_ context.Context, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queueStarts = append(r.queueStarts, count)
	return nil
}

func (r *recordingNotifier) NotifyQueueCompleted(_ context.Context, processed, failed int, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queueCompletes = append(r.queueCompletes, struct{ processed, failed int }{processed, failed})
	return nil
}

func (r *recordingNotifier) NotifyError(_ context.Context, err error, contextLabel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, contextLabel+": "+err.Error())
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func fullStageSet() workflow.StageSet {
	return workflow.StageSet{
		VerseFetcher:  newStubStage("verse-fetch"),
		AudioPreparer: newStubStage("audio-prep"),
		Renderer:      newStubStage("rendering"),
		Organizer:     newStubStage("organizer"),
	}
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Job {
	t.Helper()
	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		default:
		}
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if job != nil && job.Status == want {
			return job
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestManagerProcessesJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	notifier := &recordingNotifier{}
	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	manager.ConfigureStages(fullStageSet())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(manager.Stop)

	job := testsupport.NewJob(t, store, 7, 1, 1, 7)
	done := waitForStatus(t, store, job.ID, queue.StatusCompleted)

	if done.ProgressPercent != 100 {
		t.Fatalf("expected 100 percent on completion, got %.1f", done.ProgressPercent)
	}
	if done.ErrorMessage != "" {
		t.Fatalf("expected no error message, got %q", done.ErrorMessage)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.queueStarts) != 1 {
		t.Fatalf("expected one queue start notification, got %d", len(notifier.queueStarts))
	}
	if len(notifier.completions) != 1 {
		t.Fatalf("expected one completion notification, got %d", len(notifier.completions))
	}
	if len(notifier.renders) != 1 {
		t.Fatalf("expected one render milestone notification, got %d", len(notifier.renders))
	}
}

func TestManagerMarksJobFailedOnStageError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	set := fullStageSet()
	audio := newStubStage("audio-prep")
	audio.executeErr = services.Wrap(services.ErrExternalTool, "audio", "merge", "ffmpeg exploded", errors.New("exit status 1"))
	set.AudioPreparer = audio

	notifier := &recordingNotifier{}
	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	manager.ConfigureStages(set)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(manager.Stop)

	job := testsupport.NewJob(t, store, 7, 1, 1, 3)
	failed := waitForStatus(t, store, job.ID, queue.StatusFailed)

	if failed.ErrorMessage == "" {
		t.Fatal("expected error message on failed job")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.errors) == 0 {
		t.Fatal("expected an error notification")
	}
}

func TestManagerStartRequiresConfiguredStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	if err := manager.Start(context.Background()); err == nil {
		manager.Stop()
		t.Fatal("expected error when no stages configured")
	}
}

func TestManagerStatusReportsStageHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set := fullStageSet()
	renderer := newStubStage("rendering")
	renderer.health = stage.Unhealthy("rendering", "ffmpeg not found")
	set.Renderer = renderer

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	manager.ConfigureStages(set)

	summary := manager.Status(context.Background())
	if summary.Running {
		t.Fatal("expected manager to report not running before Start")
	}
	health, ok := summary.StageHealth["rendering"]
	if !ok {
		t.Fatal("expected rendering stage health")
	}
	if health.Ready || health.Detail != "ffmpeg not found" {
		t.Fatalf("unexpected health %+v", health)
	}
	if len(summary.StageHealth) != 4 {
		t.Fatalf("expected health for all four stages, got %d", len(summary.StageHealth))
	}
}

func TestManagerStopIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	manager.ConfigureStages(fullStageSet())

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	manager.Stop()
	manager.Stop()

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("restart after Stop: %v", err)
	}
	manager.Stop()
}
