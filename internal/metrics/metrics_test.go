package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/Mindful/internal/checkin"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Answer(checkin.CategoryPositive, checkin.TopicSleep)
	m.Answer(checkin.CategoryPositive, checkin.TopicSleep)
	m.Skip()
	m.SessionStarted()
	m.SessionStarted()
	m.SessionsDropped(1)
	m.RecordOp("add", nil)
	m.RecordOp("add", errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.categorizations.WithLabelValues("positive", "sleep")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skips))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.records.WithLabelValues("add", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Answer(checkin.CategoryNeutral, checkin.TopicFocus)
	m.SessionFinalized(checkin.Summary{Good: 1})
	m.RecordOp("list", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SessionFinalized(checkin.Summary{Good: 2, Bad: 1})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "mindful_sessions_total"))
}
