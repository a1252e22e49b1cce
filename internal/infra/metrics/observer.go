// Package metrics exposes dispatch and lifecycle events as Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alarm-light/internal/domain"
)

const namespace = "alarmlight"

// Observer implements application.Observer on its own registry.
type Observer struct {
	registry *prometheus.Registry

	applied      *prometheus.CounterVec // by state: ON, OFF
	ignored      *prometheus.CounterVec // by reason
	sessionState prometheus.Gauge
	engineState  *prometheus.GaugeVec
	lightOn      prometheus.Gauge
}

func NewObserver() (*Observer, error) {
	o := &Observer{
		registry: prometheus.NewRegistry(),

		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_applied_total",
			Help:      "Actions written to the relay, by logical state",
		}, []string{"state"}),

		ignored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_ignored_total",
			Help:      "Recognition results that produced no actuation, by reason",
		}, []string{"reason"}),

		sessionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "Session lifecycle state (0 uninitialized, 1 listening, 2 stopping, 3 disposed)",
		}),

		engineState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_state",
			Help:      "1 for the recognizer's current state, 0 otherwise",
		}, []string{"state"}),

		lightOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "light_on",
			Help:      "1 when the last applied action turned the light on",
		}),
	}

	for _, c := range []prometheus.Collector{
		o.applied,
		o.ignored,
		o.sessionState,
		o.engineState,
		o.lightOn,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := o.registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	return o, nil
}

func (o *Observer) ActionApplied(state domain.LogicalState) {
	o.applied.WithLabelValues(state.String()).Inc()
	if state == domain.StateOn {
		o.lightOn.Set(1)
	} else {
		o.lightOn.Set(0)
	}
}

func (o *Observer) ActionIgnored(reason string) {
	o.ignored.WithLabelValues(reason).Inc()
}

func (o *Observer) SessionStateChanged(state domain.SessionState) {
	o.sessionState.Set(float64(state))
	if state == domain.SessionDisposed {
		o.lightOn.Set(0)
	}
}

func (o *Observer) EngineStateChanged(state domain.EngineState) {
	for _, s := range []domain.EngineState{
		domain.EngineIdle,
		domain.EngineCapturing,
		domain.EngineProcessing,
		domain.EngineStopped,
	} {
		value := 0.0
		if s == state {
			value = 1
		}
		o.engineState.WithLabelValues(string(s)).Set(value)
	}
}

func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{Registry: o.registry})
}
