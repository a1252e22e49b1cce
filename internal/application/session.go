package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"alarm-light/internal/domain"
)

// ErrSessionUsed is returned by Start once the session has left
// Uninitialized. Sessions are single-use.
var ErrSessionUsed = errors.New("recognition session already used")

type SessionConfig struct {
	Engine   RecognitionEngine
	GPIO     GPIOProvider
	Pin      int
	Observer Observer
	Notifier Notifier
	Logger   *slog.Logger
}

// Session brackets the active window of the pipeline: it owns the actuator
// and the recognition engine between Start and Stop.
type Session struct {
	engine    RecognitionEngine
	gpio      GPIOProvider
	pinNumber int
	observer  Observer
	notifier  Notifier
	logger    *slog.Logger

	mu         sync.Mutex
	state      atomic.Int32
	actuator   *Actuator
	dispatcher *Dispatcher
	alerts     *AsyncNotifier
}

const alertQueueSize = 8

func NewSession(cfg SessionConfig) *Session {
	if cfg.Observer == nil {
		cfg.Observer = NoopObserver{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = &NoopNotifier{}
	}
	return &Session{
		engine:    cfg.Engine,
		gpio:      cfg.GPIO,
		pinNumber: cfg.Pin,
		observer:  cfg.Observer,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
	}
}

func (s *Session) State() domain.SessionState {
	return domain.SessionState(s.state.Load())
}

func (s *Session) setState(state domain.SessionState) {
	prev := s.State()
	s.state.Store(int32(state))
	s.logger.Info("session state", "from", prev, "to", state)
	s.observer.SessionStateChanged(state)
}

// Start compiles the grammar, acquires and configures the pin, and only then
// begins continuous recognition. On failure everything acquired is released
// and the session stays Uninitialized, so the caller may retry.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != domain.SessionUninitialized {
		return ErrSessionUsed
	}

	s.logger.Info("compiling recognition constraints", "engine", s.engine.Name())
	if err := s.engine.CompileConstraints(ctx); err != nil {
		s.logger.Error("startup failed", "stage", "compile", "error", err)
		return fmt.Errorf("compiling constraints: %w", err)
	}

	pin, err := s.gpio.OpenPin(s.pinNumber)
	if err != nil {
		s.logger.Error("startup failed", "stage", "gpio", "pin", s.pinNumber, "error", err)
		return fmt.Errorf("opening pin %d: %w", s.pinNumber, err)
	}

	actuator := NewActuator(pin, s.logger)
	if err := actuator.Configure(); err != nil {
		s.logger.Error("startup failed", "stage", "configure", "error", err)
		if relErr := actuator.Release(); relErr != nil {
			s.logger.Warn("releasing actuator after failed start", "error", relErr)
		}
		return fmt.Errorf("configuring actuator: %w", err)
	}

	alerts := NewAsyncNotifier(s.notifier, alertQueueSize, s.logger)
	dispatcher := NewDispatcher(actuator, s.observer, alerts, s.logger)

	if err := s.engine.StartContinuous(ctx, dispatcher.HandleResult); err != nil {
		s.logger.Error("startup failed", "stage", "listen", "error", err)
		dispatcher.Halt()
		if relErr := actuator.Release(); relErr != nil {
			s.logger.Warn("releasing actuator after failed start", "error", relErr)
		}
		if closeErr := alerts.Close(ctx); closeErr != nil {
			s.logger.Warn("closing notifier after failed start", "error", closeErr)
		}
		return fmt.Errorf("starting continuous recognition: %w", err)
	}

	s.actuator = actuator
	s.dispatcher = dispatcher
	s.alerts = alerts
	s.setState(domain.SessionListening)
	return nil
}

// Stop tears the session down in a fixed order: halt the dispatcher, wait for
// the engine to acknowledge the stop, then release the pin and the engine,
// and finally flush pending notifications.
// Outside Listening it does nothing. The session always ends Disposed, even
// when a step fails; the failures are returned joined.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != domain.SessionListening {
		return nil
	}

	s.setState(domain.SessionStopping)
	s.dispatcher.Halt()

	var errs []error
	if err := s.engine.StopContinuous(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stopping continuous recognition: %w", err))
	}

	if err := s.actuator.Release(); err != nil {
		errs = append(errs, fmt.Errorf("releasing actuator: %w", err))
	}

	if err := s.engine.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing engine: %w", err))
	}

	if err := s.alerts.Close(ctx); err != nil {
		errs = append(errs, err)
	}

	s.setState(domain.SessionDisposed)
	return errors.Join(errs...)
}

// LightState reports the actuator's logical state while the session holds
// one.
func (s *Session) LightState() (domain.LogicalState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.actuator == nil || s.actuator.Released() {
		return domain.StateOff, false
	}
	return s.actuator.State(), true
}
