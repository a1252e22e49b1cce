package application_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"alarm-light/internal/application"
	"alarm-light/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// callLog records the order in which collaborators are touched.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

type fakePin struct {
	number int
	log    *callLog

	mu       sync.Mutex
	output   bool
	levels   []domain.Level
	closed   int
	writeErr error
}

func (p *fakePin) Number() int { return p.number }

func (p *fakePin) SetOutput() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = true
	p.log.add("pin.output")
	return nil
}

func (p *fakePin) Write(level domain.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return p.writeErr
	}
	if p.closed > 0 {
		return errors.New("write on closed pin")
	}
	p.levels = append(p.levels, level)
	p.log.add("pin.write %s", level)
	return nil
}

func (p *fakePin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	p.log.add("pin.close")
	return nil
}

func (p *fakePin) writes() []domain.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Level, len(p.levels))
	copy(out, p.levels)
	return out
}

type fakeProvider struct {
	pin     *fakePin
	openErr error
	opened  int
}

func (f *fakeProvider) OpenPin(number int) (application.Pin, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	f.pin.number = number
	f.pin.log.add("gpio.open %d", number)
	return f.pin, nil
}

type fakeSwitch struct {
	states []domain.LogicalState
	err    error
}

func (s *fakeSwitch) Set(state domain.LogicalState) error {
	if s.err != nil {
		return s.err
	}
	s.states = append(s.states, state)
	return nil
}

// fakeEngine hands results to whatever handler it was started with. deliver
// keeps working after StopContinuous to simulate a late callback.
type fakeEngine struct {
	log        *callLog
	compileErr error
	startErr   error

	mu      sync.Mutex
	handler application.ResultHandler
	stopped bool
	closed  int
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) CompileConstraints(_ context.Context) error {
	e.log.add("engine.compile")
	return e.compileErr
}

func (e *fakeEngine) StartContinuous(_ context.Context, handler application.ResultHandler) error {
	e.log.add("engine.start")
	if e.startErr != nil {
		return e.startErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
	return nil
}

func (e *fakeEngine) StopContinuous(_ context.Context) error {
	e.log.add("engine.stop")
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
	return nil
}

func (e *fakeEngine) Close() error {
	e.log.add("engine.close")
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed++
	return nil
}

func (e *fakeEngine) deliver(props map[string][]string) {
	e.mu.Lock()
	handler := e.handler
	e.mu.Unlock()
	if handler == nil {
		return
	}
	handler(context.Background(), domain.RecognitionResult{
		ID:         "evt",
		Status:     domain.StatusSuccess,
		Properties: props,
	})
}

type recordingObserver struct {
	mu       sync.Mutex
	applied  []domain.LogicalState
	ignored  []string
	sessions []domain.SessionState
}

func (o *recordingObserver) ActionApplied(state domain.LogicalState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.applied = append(o.applied, state)
}

func (o *recordingObserver) ActionIgnored(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ignored = append(o.ignored, reason)
}

func (o *recordingObserver) SessionStateChanged(state domain.SessionState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessions = append(o.sessions, state)
}

func (o *recordingObserver) EngineStateChanged(domain.EngineState) {}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func (n *recordingNotifier) list() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// gatedNotifier blocks every delivery until release is closed.
type gatedNotifier struct {
	recordingNotifier
	release chan struct{}
}

func (n *gatedNotifier) Notify(ctx context.Context, message string) error {
	select {
	case <-n.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return n.recordingNotifier.Notify(ctx, message)
}
