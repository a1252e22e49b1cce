package application

import "alarm-light/internal/domain"

// Observer receives dispatch and lifecycle events for metrics.
type Observer interface {
	ActionApplied(state domain.LogicalState)
	ActionIgnored(reason string)
	SessionStateChanged(state domain.SessionState)
	EngineStateChanged(state domain.EngineState)
}

type NoopObserver struct{}

func (NoopObserver) ActionApplied(domain.LogicalState)       {}
func (NoopObserver) ActionIgnored(string)                    {}
func (NoopObserver) SessionStateChanged(domain.SessionState) {}
func (NoopObserver) EngineStateChanged(domain.EngineState)   {}
