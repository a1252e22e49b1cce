package application

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"alarm-light/internal/domain"
)

// ErrActuatorReleased is returned by Set after Release.
var ErrActuatorReleased = errors.New("actuator released")

// Actuator owns the relay pin.
//
// The relay is low-switching: driving the pin low energizes the light. Logical
// On is therefore written as LevelLow and Off as LevelHigh. This is a property
// of the wiring, not a setting.
type Actuator struct {
	pin    Pin
	logger *slog.Logger

	mu       sync.Mutex
	state    domain.LogicalState
	writes   int
	released bool
}

func NewActuator(pin Pin, logger *slog.Logger) *Actuator {
	return &Actuator{
		pin:    pin,
		logger: logger,
	}
}

// LevelFor translates a logical state to the electrical level for a
// low-switching relay.
func LevelFor(state domain.LogicalState) domain.Level {
	if state == domain.StateOn {
		return domain.LevelLow
	}
	return domain.LevelHigh
}

// Configure puts the pin in output mode and forces the light off.
func (a *Actuator) Configure() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return ErrActuatorReleased
	}

	if err := a.pin.SetOutput(); err != nil {
		return fmt.Errorf("setting pin %d to output: %w", a.pin.Number(), err)
	}

	if err := a.write(domain.StateOff); err != nil {
		return err
	}

	a.logger.Info("actuator configured", "pin", a.pin.Number(), "state", a.state, "level", LevelFor(a.state))
	return nil
}

// Set drives the light to state. Writing the current state again is allowed.
func (a *Actuator) Set(state domain.LogicalState) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return ErrActuatorReleased
	}

	return a.write(state)
}

func (a *Actuator) write(state domain.LogicalState) error {
	level := LevelFor(state)
	if err := a.pin.Write(level); err != nil {
		return fmt.Errorf("writing %s to pin %d: %w", level, a.pin.Number(), err)
	}
	a.state = state
	a.writes++
	return nil
}

// Release closes the pin. Calling it again does nothing.
func (a *Actuator) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return nil
	}
	a.released = true

	if err := a.pin.Close(); err != nil {
		return fmt.Errorf("closing pin %d: %w", a.pin.Number(), err)
	}

	a.logger.Info("actuator released", "pin", a.pin.Number())
	return nil
}

func (a *Actuator) State() domain.LogicalState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Writes counts successful pin writes, including the one made by Configure.
func (a *Actuator) Writes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writes
}

func (a *Actuator) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}
