package daemon_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"alforqan/internal/api"
	"alforqan/internal/daemon"
	"alforqan/internal/logging"
	"alforqan/internal/queue"
	"alforqan/internal/stage"
	"alforqan/internal/testsupport"
	"alforqan/internal/workflow"
)

type noopStage struct{}

func (noopStage) Prepare(context.Context, *queue.Job) error { return nil }
func (noopStage) Execute(context.Context, *queue.Job) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}

func jsonBody(payload string) io.Reader {
	return strings.NewReader(payload)
}

func noopStages() workflow.StageSet {
	return workflow.StageSet{
		VerseFetcher:  noopStage{},
		AudioPreparer: noopStage{},
		Renderer:      noopStage{},
		Organizer:     noopStage{},
	}
}

func startDaemon(t *testing.T) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(noopStages())
	d, err := daemon.New(cfg, store, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	d, _ := startDaemon(t)

	ctx := context.Background()
	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	time.Sleep(50 * time.Millisecond)
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestAPIServesStatusAndQueue(t *testing.T) {
	d, store := startDaemon(t)
	addr := d.APIAddr()
	if addr == "" {
		t.Fatal("expected API listener address")
	}
	testsupport.NewJob(t, store, 7, 112, 1, 4)

	resp, err := http.Get(fmt.Sprintf("http://%s/api/status", addr))
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from status, got %d", resp.StatusCode)
	}
	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running daemon status")
	}
	if len(status.Workflow.StageHealth) != 4 {
		t.Fatalf("expected 4 stage health entries, got %d", len(status.Workflow.StageHealth))
	}

	queueResp, err := http.Get(fmt.Sprintf("http://%s/api/queue", addr))
	if err != nil {
		t.Fatalf("GET queue: %v", err)
	}
	defer queueResp.Body.Close()
	var list api.QueueListResponse
	if err := json.NewDecoder(queueResp.Body).Decode(&list); err != nil {
		t.Fatalf("decode queue: %v", err)
	}
	if len(list.Jobs) == 0 {
		t.Fatal("expected queued job in listing")
	}
	if list.Jobs[0].Surah != 112 {
		t.Fatalf("unexpected surah %d", list.Jobs[0].Surah)
	}
}

func TestAPIAddValidatesPayload(t *testing.T) {
	d, _ := startDaemon(t)
	addr := d.APIAddr()

	resp, err := http.Post(fmt.Sprintf("http://%s/api/queue", addr), "application/json",
		jsonBody(`{"surah":0,"startAyah":1,"endAyah":1}`))
	if err != nil {
		t.Fatalf("POST queue: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid surah, got %d", resp.StatusCode)
	}

	created, err := http.Post(fmt.Sprintf("http://%s/api/queue", addr), "application/json",
		jsonBody(`{"surah":1,"startAyah":1,"endAyah":7,"reciterId":7}`))
	if err != nil {
		t.Fatalf("POST queue: %v", err)
	}
	defer created.Body.Close()
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", created.StatusCode)
	}
}

func TestAPIRejectsMissingBearerToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = "secret-token"
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(noopStages())
	d, err := daemon.New(cfg, store, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := d.APIAddr()

	resp, err := http.Get(fmt.Sprintf("http://%s/api/status", addr))
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("http://%s/api/status", addr), nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Authorization", "Bearer secret-token")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET status with token: %v", err)
	}
	defer authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", authed.StatusCode)
	}
}
