package daemon

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"alforqan/internal/api"
	"alforqan/internal/config"
	"alforqan/internal/logging"
	"alforqan/internal/organizer"
	"alforqan/internal/queue"
	"alforqan/internal/reciters"
)

//go:embed index.html
var frontPage []byte

type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	queueSvc *api.QueueService
	catalog  *reciters.Client
	engine   *gin.Engine

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:     bind,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		daemon:   d,
		queueSvc: api.NewQueueService(d.store),
		catalog:  reciters.NewClient(cfg, reciters.NewHTTPBreaker("everyayah-catalog"), logger),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/", srv.handleFrontPage)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group := engine.Group("/api")
	if token := strings.TrimSpace(cfg.Paths.APIToken); token != "" {
		group.Use(bearerAuth(token))
	}
	group.GET("/status", srv.handleStatus)
	group.GET("/queue", srv.handleQueueList)
	group.POST("/queue", srv.handleQueueAdd)
	group.DELETE("/queue", srv.handleQueueClear)
	group.POST("/queue/retry", srv.handleQueueRetryAll)
	group.GET("/queue/health", srv.handleQueueHealth)
	group.GET("/queue/:id", srv.handleQueueShow)
	group.DELETE("/queue/:id", srv.handleQueueRemove)
	group.POST("/queue/:id/retry", srv.handleQueueRetry)
	group.GET("/reciters", srv.handleReciters)
	group.GET("/gallery", srv.handleGallery)

	srv.engine = engine
	srv.server = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// bearerAuth rejects requests missing the configured bearer token.
func bearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleFrontPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", frontPage)
}

func (s *apiServer) handleStatus(c *gin.Context) {
	status := s.daemon.Status(c.Request.Context())
	c.JSON(http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          os.Getpid(),
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		Workflow:     api.FromStatusSummary(status.Workflow),
	})
}

func (s *apiServer) handleQueueList(c *gin.Context) {
	var statuses []queue.Status
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, value := range strings.Split(raw, ",") {
			status, ok := queue.ParseStatus(value)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", value)})
				return
			}
			statuses = append(statuses, status)
		}
	}
	jobs, err := s.queueSvc.List(c.Request.Context(), statuses...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, api.QueueListResponse{Jobs: jobs})
}

func (s *apiServer) handleQueueAdd(c *gin.Context) {
	var request api.AddJobRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.ReciterID == 0 {
		request.ReciterID = s.daemon.cfg.Reciter.DefaultID
	}
	job, err := s.queueSvc.Add(c.Request.Context(), request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, api.QueueJobResponse{Job: *job})
}

func (s *apiServer) handleQueueClear(c *gin.Context) {
	mode := api.ClearMode(strings.TrimSpace(c.DefaultQuery("mode", string(api.ClearAll))))
	removed, err := s.queueSvc.Clear(c.Request.Context(), mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *apiServer) handleQueueShow(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}
	job, err := s.queueSvc.Describe(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("job %d not found", id)})
		return
	}
	c.JSON(http.StatusOK, api.QueueJobResponse{Job: *job})
}

func (s *apiServer) handleQueueRemove(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}
	removed, err := s.queueSvc.Remove(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("job %d not found", id)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

func (s *apiServer) handleQueueRetry(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}
	updated, err := s.queueSvc.Retry(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if updated == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("job %d is not failed", id)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"retried": updated})
}

func (s *apiServer) handleQueueRetryAll(c *gin.Context) {
	updated, err := s.queueSvc.Retry(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"retried": updated})
}

func (s *apiServer) handleQueueHealth(c *gin.Context) {
	health, err := s.queueSvc.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":      health.Total,
		"pending":    health.Pending,
		"processing": health.Processing,
		"failed":     health.Failed,
		"completed":  health.Completed,
	})
}

func (s *apiServer) handleReciters(c *gin.Context) {
	catalog, err := s.catalog.Catalog(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	list := catalog.List()
	if term := strings.TrimSpace(c.Query("search")); term != "" {
		list = catalog.Search(term)
	}
	c.JSON(http.StatusOK, gin.H{"reciters": api.FromReciters(list)})
}

func (s *apiServer) handleGallery(c *gin.Context) {
	entries, err := organizer.ListGallery(s.daemon.cfg.Paths.OutputDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"gallery": api.FromGalleryEntries(entries)})
}

func parseJobID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return 0, false
	}
	return id, true
}
