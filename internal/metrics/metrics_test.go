package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterAndRecord(t *testing.T) {
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// Double register must be a no-op.
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		t.Fatalf("second Register: %v", err)
	}

	IncStart()
	IncStop()
	IncRestart()
	IncStaleLock()
	SetMonitorUp(true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	body := rec.Body.String()

	for _, want := range []string{
		"vigilhome_supervisor_starts_total",
		"vigilhome_supervisor_stops_total",
		"vigilhome_supervisor_restarts_total",
		"vigilhome_supervisor_stale_locks_total",
		"vigilhome_supervisor_monitor_up 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
