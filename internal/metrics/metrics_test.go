package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExportsCounters(t *testing.T) {
	m := New()
	m.Passes.Add(3)
	m.LinesEmitted.Add(2)
	m.UpdatePassLatency(1500 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	expected := []string{
		"textwatch_passes_total 3",
		"textwatch_lines_emitted_total 2",
		"textwatch_pass_latency_ms 1500",
		"textwatch_triggers_dropped_total 0",
	}
	for _, line := range expected {
		if !strings.Contains(string(body), line) {
			t.Errorf("Expected %q in metrics output", line)
		}
	}
}
