package gpio

import (
	"log/slog"
	"sync"

	"alarm-light/internal/application"
	"alarm-light/internal/domain"
)

// MemoryProvider keeps pin levels in memory. It backs dry runs on machines
// without a GPIO header and the infra tests.
type MemoryProvider struct {
	logger *slog.Logger
	claims claims

	mu   sync.Mutex
	pins map[int]*MemoryPin
}

func NewMemoryProvider(logger *slog.Logger) *MemoryProvider {
	return &MemoryProvider{
		logger: logger,
		pins:   make(map[int]*MemoryPin),
	}
}

func (m *MemoryProvider) OpenPin(number int) (application.Pin, error) {
	if err := m.claims.acquire(number); err != nil {
		return nil, err
	}

	pin := &MemoryPin{
		number:  number,
		logger:  m.logger,
		release: func() { m.claims.release(number) },
	}

	m.mu.Lock()
	m.pins[number] = pin
	m.mu.Unlock()

	return pin, nil
}

// Pin returns the most recently opened pin with that number.
func (m *MemoryProvider) Pin(number int) (*MemoryPin, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pin, ok := m.pins[number]
	return pin, ok
}

type MemoryPin struct {
	number  int
	logger  *slog.Logger
	release func()

	mu      sync.Mutex
	output  bool
	closed  bool
	history []domain.Level
}

func (p *MemoryPin) Number() int {
	return p.number
}

func (p *MemoryPin) SetOutput() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPinClosed
	}
	p.output = true
	return nil
}

func (p *MemoryPin) Write(level domain.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPinClosed
	}
	if !p.output {
		return ErrPinNotOutput
	}

	p.history = append(p.history, level)
	p.logger.Debug("memory pin write", "pin", p.number, "level", level)
	return nil
}

func (p *MemoryPin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.release()
	return nil
}

// Level returns the last written level; ok is false before the first write.
func (p *MemoryPin) Level() (domain.Level, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.history) == 0 {
		return domain.LevelLow, false
	}
	return p.history[len(p.history)-1], true
}

func (p *MemoryPin) History() []domain.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Level, len(p.history))
	copy(out, p.history)
	return out
}

func (p *MemoryPin) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
