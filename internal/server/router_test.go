//go:build !windows

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aamsilva/vigilhome/internal/config"
	"github.com/aamsilva/vigilhome/internal/logger"
	"github.com/aamsilva/vigilhome/internal/process"
	"github.com/aamsilva/vigilhome/internal/supervisor"
)

func testRouter(t *testing.T) (*Router, config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	cfg := config.Default()
	cfg.PIDFile = filepath.Join(dir, "vigilhome.pid")
	cfg.Monitor = process.Spec{
		Command: "sleep 30",
		Log:     logger.Config{Path: filepath.Join(dir, "monitor.log")},
	}
	cfg.RestartDelay = 50 * time.Millisecond
	sup := supervisor.New(cfg, nil)
	return NewRouter(sup, "/api"), cfg
}

func TestStatusNotRunning(t *testing.T) {
	r, _ := testRouter(t)
	h := r.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code: %d", rec.Code)
	}
	var st supervisor.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Running {
		t.Fatalf("expected not running, got %+v", st)
	}
}

func TestStartStopOverHTTP(t *testing.T) {
	r, _ := testRouter(t)
	h := r.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/start", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("start code: %d body: %s", rec.Code, rec.Body.String())
	}
	var started startResp
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode start: %v", err)
	}
	if !started.OK || started.PID <= 0 {
		t.Fatalf("unexpected start response: %+v", started)
	}

	// Second start conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/start", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second start code: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/stop", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop code: %d body: %s", rec.Code, rec.Body.String())
	}
	var res supervisor.StopResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode stop: %v", err)
	}
	if res.Outcome != supervisor.StopSignalled {
		t.Fatalf("expected signalled, got %+v", res)
	}
}

func TestStatsEmptyLog(t *testing.T) {
	r, _ := testRouter(t)
	h := r.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats code: %d", rec.Code)
	}
}

func TestStatsCounts(t *testing.T) {
	r, cfg := testRouter(t)
	h := r.Handler()
	content := "Person detected in quintal\nAlert sent successfully\n"
	if err := os.WriteFile(cfg.Monitor.Log.Path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var sum struct {
		Detections int `json:"detections"`
		Alerts     int `json:"alerts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Detections != 1 || sum.Alerts != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestHealthz(t *testing.T) {
	r, _ := testRouter(t)
	h := r.Handler()
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz code: %d", rec.Code)
	}
}

func TestSanitizeBase(t *testing.T) {
	cases := map[string]string{
		"":      "",
		"/":     "",
		"api":   "/api",
		"/api":  "/api",
		"/api/": "/api",
	}
	for in, want := range cases {
		if got := sanitizeBase(in); got != want {
			t.Fatalf("sanitizeBase(%q) = %q, want %q", in, got, want)
		}
	}
}
