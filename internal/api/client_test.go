package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"alforqan/internal/api"
)

func newStubDaemon(t *testing.T, token string) (*httptest.Server, *api.Client) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/api/queue", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(api.QueueListResponse{Jobs: []api.QueueJob{{ID: 1, Surah: 112}}})
		case http.MethodPost:
			var request api.AddJobRequest
			if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(api.QueueJobResponse{Job: api.QueueJob{ID: 2, Surah: request.Surah}})
		}
	})
	mux.HandleFunc("/api/queue/7", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "job 7 not found"})
	})
	mux.HandleFunc("/api/queue/3/retry", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "job 3 is not failed"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, api.NewClient(server.URL, token)
}

func TestClientSendsBearerToken(t *testing.T) {
	_, client := newStubDaemon(t, "secret")

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	jobs, err := client.QueueList(context.Background(), nil)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Surah != 112 {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}

	unauthorized := api.NewClient("", "")
	if _, err := unauthorized.QueueList(context.Background(), nil); err == nil {
		t.Fatal("expected error without address")
	}
}

func TestClientAddDecodesCreatedJob(t *testing.T) {
	_, client := newStubDaemon(t, "secret")

	job, err := client.QueueAdd(context.Background(), api.AddJobRequest{Surah: 1, StartAyah: 1, EndAyah: 7})
	if err != nil {
		t.Fatalf("queue add: %v", err)
	}
	if job.ID != 2 || job.Surah != 1 {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestClientTreatsNotFoundAsNil(t *testing.T) {
	_, client := newStubDaemon(t, "secret")

	job, err := client.QueueDescribe(context.Background(), 7)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %+v", job)
	}
}

func TestClientTreatsConflictAsNoRetry(t *testing.T) {
	_, client := newStubDaemon(t, "secret")

	updated, err := client.QueueRetry(context.Background(), 3)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected 0 retried, got %d", updated)
	}
}

func TestClientSurfacesServerError(t *testing.T) {
	server, _ := newStubDaemon(t, "secret")
	client := api.NewClient(server.URL, "wrong-token")

	_, err := client.QueueList(context.Background(), nil)
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
}
