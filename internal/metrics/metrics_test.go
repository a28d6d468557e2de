package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveResolution(t *testing.T) {
	m := NewMetrics().(*metrics)

	m.ObserveResolution(OutcomeMatched, 3)
	m.ObserveResolution(OutcomeMatched, 1)
	m.ObserveResolution(OutcomeNoMatch, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.resolutionsTotal.WithLabelValues(OutcomeMatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutionsTotal.WithLabelValues(OutcomeNoMatch)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.candidateFiles))
}

func TestIncrementCollaboratorFailures(t *testing.T) {
	m := NewMetrics().(*metrics)

	m.IncrementCollaboratorFailures("structured_data")
	m.IncrementCollaboratorFailures("structured_data")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.collaboratorFailures.WithLabelValues("structured_data")))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveGRPCRequest("/editcheck.v1.Validation/ResolveRules", "OK", 0.01)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "editcheck_grpc_time_seconds")
	assert.Contains(t, string(body), "editcheck_process_")
}

func TestNilReceiver(t *testing.T) {
	var m *metrics
	assert.NotPanics(t, func() {
		m.ObserveResolution(OutcomeError, 0)
		m.IncrementCollaboratorFailures("report")
		m.ObserveGRPCRequest("m", "OK", 1)
	})
}
