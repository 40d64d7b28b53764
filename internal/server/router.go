package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aamsilva/vigilhome/internal/metrics"
	"github.com/aamsilva/vigilhome/internal/supervisor"
)

// Router exposes the supervisor operations over HTTP for dashboards and
// remote checks. Endpoints (under basePath):
//
//	GET  /status   current monitor state
//	GET  /stats    marker summary of the monitor log
//	POST /start    start the monitor
//	POST /stop     stop the monitor
//	POST /restart  restart the monitor
//	GET  /healthz  liveness of the supervisor itself
//
// /metrics is mounted at the root regardless of basePath.
type Router struct {
	sup      *supervisor.Supervisor
	basePath string
}

// NewRouter constructs a Router with a configurable basePath.
// Example basePath: "/api" results in /api/status, /api/start, ...
func NewRouter(sup *supervisor.Supervisor, basePath string) *Router {
	return &Router{sup: sup, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.GET("/stats", r.handleStats)
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.POST("/restart", r.handleRestart)
	group.GET("/healthz", r.handleHealthz)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer builds a standalone HTTP server on addr using this router and
// starts it in a background goroutine. The caller shuts it down via
// http.Server's Shutdown/Close.
func NewServer(addr, basePath string, sup *supervisor.Supervisor) (*http.Server, error) {
	r := NewRouter(sup, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

type errorResp struct {
	Error string `json:"error"`
}

type startResp struct {
	OK  bool `json:"ok"`
	PID int  `json:"pid"`
}

func (r *Router) handleStatus(c *gin.Context) {
	st, err := r.sup.Status()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (r *Router) handleStats(c *gin.Context) {
	sum, err := r.sup.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (r *Router) handleStart(c *gin.Context) {
	pid, err := r.sup.Start(c.Request.Context())
	if err != nil {
		if errors.Is(err, supervisor.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "already running", "pid": pid})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, startResp{OK: true, PID: pid})
}

func (r *Router) handleStop(c *gin.Context) {
	res, err := r.sup.Stop(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (r *Router) handleRestart(c *gin.Context) {
	pid, err := r.sup.Restart(c.Request.Context())
	if err != nil {
		if errors.Is(err, supervisor.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "already running", "pid": pid})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, startResp{OK: true, PID: pid})
}

func (r *Router) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func sanitizeBase(basePath string) string {
	bp := strings.TrimSpace(basePath)
	if bp == "" || bp == "/" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	return strings.TrimRight(bp, "/")
}
