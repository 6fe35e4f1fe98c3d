package main

import (
	"context"
	"testing"

	"alforqan/internal/queue"
)

func TestQueueAddListShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"queue", "add", "112", "1", "4", "--reciter", "7"}, env.configPath)
	if err != nil {
		t.Fatalf("queue add: %v", err)
	}
	requireContains(t, out, "Queued job 1")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "112:1-4")
	requireContains(t, out, "pending")

	out, _, err = runCLI(t, []string{"queue", "show", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, "Verses:    112:1-4")
	requireContains(t, out, "id 7")

	if _, _, err = runCLI(t, []string{"queue", "show", "99"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestQueueAddRejectsInvalidRange(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"queue", "add", "0", "1", "--reciter", "7"}, env.configPath); err == nil {
		t.Fatal("expected error for surah 0")
	}
}

func TestQueueStatusSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	seedJob(t, env, 112, 1, 4)
	failed := seedJob(t, env, 1, 1, 7)
	failed.SetFailed("download failed")
	if err := env.store.Update(ctx, failed); err != nil {
		t.Fatalf("update failed job: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "pending")
	requireContains(t, out, "failed")
}

func TestQueueRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	job := seedJob(t, env, 112, 1, 4)
	job.SetFailed("render failed")
	if err := env.store.Update(ctx, job); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Retried 1 failed jobs")

	updated, err := env.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("lookup job: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 queue jobs")
}

func TestQueueRemoveReportsMissing(t *testing.T) {
	env := setupCLITestEnv(t)

	job := seedJob(t, env, 112, 1, 4)

	out, _, err := runCLI(t, []string{"queue", "remove", "1", "42"}, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Job 1 removed")
	requireContains(t, out, "Job 42 not found")

	remaining, err := env.store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("lookup removed job: %v", err)
	}
	if remaining != nil {
		t.Fatal("expected job to be removed")
	}
}

func TestQueueHealthSummary(t *testing.T) {
	env := setupCLITestEnv(t)

	seedJob(t, env, 112, 1, 4)

	out, _, err := runCLI(t, []string{"queue", "health"}, env.configPath)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Total: 1")
	requireContains(t, out, "Pending: 1")
}

func seedJob(t *testing.T, env *cliTestEnv, surah, startAyah, endAyah int) *queue.Job {
	t.Helper()
	job, err := env.store.NewJob(context.Background(), &queue.Job{
		Surah:     surah,
		StartAyah: startAyah,
		EndAyah:   endAyah,
		ReciterID: 7,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	return job
}
