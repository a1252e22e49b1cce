package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"alarm-light/internal/domain"
)

type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeApplied
	OutcomeDropped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeApplied:
		return "applied"
	case OutcomeDropped:
		return "dropped"
	case OutcomeFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Dispatcher routes resolved actions to the switch. It is Ready until Halt is
// called and Halted forever after.
//
// The halted check and the switch call happen under one lock, so once Halt
// returns no Set is in flight and none will follow.
type Dispatcher struct {
	sw       Switch
	observer Observer
	notifier Notifier
	logger   *slog.Logger

	mu      sync.Mutex
	halted  bool
	last    domain.LogicalState
	applied bool
}

func NewDispatcher(sw Switch, observer Observer, notifier Notifier, logger *slog.Logger) *Dispatcher {
	if observer == nil {
		observer = NoopObserver{}
	}
	if notifier == nil {
		notifier = &NoopNotifier{}
	}
	return &Dispatcher{
		sw:       sw,
		observer: observer,
		notifier: notifier,
		logger:   logger,
	}
}

// HandleResult is the ResultHandler given to the recognition engine. The
// notifier is called on this goroutine, so it should not block; Session
// passes an AsyncNotifier.
func (d *Dispatcher) HandleResult(ctx context.Context, result domain.RecognitionResult) {
	action := Interpret(result, d.logger)
	outcome, changed := d.dispatch(action, result.ID)

	if outcome == OutcomeApplied && changed {
		msg := fmt.Sprintf("Alarm light %s", action.State)
		if err := d.notifier.Notify(ctx, msg); err != nil {
			d.logger.Error("notifying light change", "error", err)
		}
	}
}

// Dispatch applies one action and reports what happened to it.
func (d *Dispatcher) Dispatch(action domain.ResolvedAction) Outcome {
	outcome, _ := d.dispatch(action, "")
	return outcome
}

func (d *Dispatcher) dispatch(action domain.ResolvedAction, eventID string) (Outcome, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.halted {
		d.logger.Warn("action dropped", "event_id", eventID, "reason", domain.ReasonHalted)
		d.observer.ActionIgnored(domain.ReasonHalted)
		return OutcomeDropped, false
	}

	if !action.IsActionable() {
		d.logger.Info("action ignored", "event_id", eventID, "reason", action.Reason)
		d.observer.ActionIgnored(action.Reason)
		return OutcomeIgnored, false
	}

	if err := d.sw.Set(action.State); err != nil {
		d.logger.Error("applying action",
			"event_id", eventID,
			"device", action.Device,
			"target", action.Target,
			"state", action.State,
			"error", err,
		)
		return OutcomeFailed, false
	}

	changed := !d.applied || d.last != action.State
	d.applied = true
	d.last = action.State

	d.logger.Info("action applied",
		"event_id", eventID,
		"device", action.Device,
		"target", action.Target,
		"state", action.State,
	)
	d.observer.ActionApplied(action.State)
	return OutcomeApplied, changed
}

// Halt moves the dispatcher to Halted. It waits for an in-flight dispatch to
// finish.
func (d *Dispatcher) Halt() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.halted = true
}

func (d *Dispatcher) Halted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.halted
}
