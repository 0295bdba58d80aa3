package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_Independent(t *testing.T) {
	// Two instances must not collide on registration
	first := NewMetrics()
	second := NewMetrics()

	first.ChunksReceived.Inc()

	if got := testutil.ToFloat64(first.ChunksReceived); got != 1 {
		t.Errorf("Expected 1 chunk on first instance, got %f", got)
	}

	if got := testutil.ToFloat64(second.ChunksReceived); got != 0 {
		t.Errorf("Expected 0 chunks on second instance, got %f", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.Transcriptions.WithLabelValues(PhasePartial, OutcomeSuccess).Inc()
	m.ActiveSessions.Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	if !strings.Contains(text, `jarvis_transcriptions_total{outcome="success",phase="partial"} 1`) {
		t.Errorf("Expected transcription counter in output, got:\n%s", text)
	}

	if !strings.Contains(text, "jarvis_active_sessions 3") {
		t.Errorf("Expected active sessions gauge in output")
	}
}
