package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordTurn("ORDER_CONFIRMATION")
	m.RecordTurn("ORDER_CONFIRMATION")
	m.RecordIntent("new_order", "zero_shot")
	m.RecordFallback("extraction", "model_failure")
	m.RecordOrder("queued")
	m.RecordIssue("unknown_item")
	m.SetActiveSessions(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.turns.WithLabelValues("ORDER_CONFIRMATION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.intents.WithLabelValues("new_order", "zero_shot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("extraction", "model_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("queued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.issues.WithLabelValues("unknown_item")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.sessions))
}

func TestMetrics_ModelErrorsOnlyOnFailure(t *testing.T) {
	m := NewMetrics()

	m.ObserveModelCall("openai", "complete", 20*time.Millisecond, nil)
	m.ObserveModelCall("openai", "complete", 30*time.Millisecond, errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelErrors.WithLabelValues("openai", "complete")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.modelLatency))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTurn("INITIAL")
		m.ObserveModelCall("x", "y", time.Second, nil)
		m.SetActiveSessions(1)
	})
	assert.Zero(t, m.Uptime())
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordOrder("queued")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "roomservice_orders_total"))
}
