package testsupport

import (
	"context"
	"testing"

	"alforqan/internal/config"
	"alforqan/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a pending render job for tests using the provided store.
func NewJob(t testing.TB, store *queue.Store, reciterID, surah, startAyah, endAyah int) *queue.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), &queue.Job{
		Surah:     surah,
		StartAyah: startAyah,
		EndAyah:   endAyah,
		ReciterID: reciterID,
	})
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}
