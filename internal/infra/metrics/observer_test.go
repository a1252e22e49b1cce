package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alarm-light/internal/domain"
	"alarm-light/internal/infra/metrics"
)

func scrape(t *testing.T, o *metrics.Observer) string {
	t.Helper()
	rec := httptest.NewRecorder()
	o.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestObserver_Counts(t *testing.T) {
	o, err := metrics.NewObserver()
	require.NoError(t, err)

	o.SessionStateChanged(domain.SessionListening)
	o.ActionApplied(domain.StateOn)
	o.ActionApplied(domain.StateOn)
	o.ActionApplied(domain.StateOff)
	o.ActionApplied(domain.StateOn)
	o.ActionIgnored(domain.ReasonUnknownDevice)
	o.EngineStateChanged(domain.EngineCapturing)

	body := scrape(t, o)
	assert.Contains(t, body, `alarmlight_actions_applied_total{state="ON"} 3`)
	assert.Contains(t, body, `alarmlight_actions_applied_total{state="OFF"} 1`)
	assert.Contains(t, body, `alarmlight_actions_ignored_total{reason="unknown device"} 1`)
	assert.Contains(t, body, "alarmlight_session_state 1")
	assert.Contains(t, body, "alarmlight_light_on 1")
	assert.Contains(t, body, `alarmlight_engine_state{state="capturing"} 1`)
	assert.Contains(t, body, `alarmlight_engine_state{state="idle"} 0`)
}

func TestObserver_DisposedClearsLight(t *testing.T) {
	o, err := metrics.NewObserver()
	require.NoError(t, err)

	o.ActionApplied(domain.StateOn)
	o.SessionStateChanged(domain.SessionDisposed)

	body := scrape(t, o)
	assert.Contains(t, body, "alarmlight_light_on 0")
	assert.Contains(t, body, "alarmlight_session_state 3")
}
