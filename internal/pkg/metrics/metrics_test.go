package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.DeploymentFinished(true)
	m.DeploymentFinished(false)
	m.DeploymentFinished(false)
	m.StepFailed("extract")
	m.ObserveCommand("discover", 2*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.deployments.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.deployments.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stepFailures.WithLabelValues("extract")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.commandDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.DeploymentFinished(true)
		m.StepFailed("install")
		m.ObserveCommand("install", time.Second)
	})
}

func TestHandlerExposesDeploymentCounters(t *testing.T) {
	m := New()
	m.DeploymentFinished(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `proxy_deploy_deployments_total{outcome="success"} 1`)
}
