package gpio

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"alarm-light/internal/application"
	"alarm-light/internal/domain"
)

// PeriphProvider drives real header pins through periph.io.
type PeriphProvider struct {
	logger *slog.Logger
	claims claims

	initOnce sync.Once
	initErr  error
}

func NewPeriphProvider(logger *slog.Logger) *PeriphProvider {
	return &PeriphProvider{logger: logger}
}

func (p *PeriphProvider) OpenPin(number int) (application.Pin, error) {
	p.initOnce.Do(func() {
		state, err := host.Init()
		if err != nil {
			p.initErr = fmt.Errorf("initializing periph host: %w", err)
			return
		}
		p.logger.Debug("periph host initialized", "drivers", len(state.Loaded))
	})
	if p.initErr != nil {
		return nil, p.initErr
	}

	io := gpioreg.ByName(strconv.Itoa(number))
	if io == nil {
		return nil, fmt.Errorf("gpio %d: %w", number, ErrPinNotFound)
	}

	if err := p.claims.acquire(number); err != nil {
		return nil, err
	}

	p.logger.Info("gpio pin opened", "pin", number, "name", io.Name())
	return newPeriphPin(io, number, func() { p.claims.release(number) }), nil
}

func newPeriphPin(io gpio.PinIO, number int, release func()) *periphPin {
	return &periphPin{io: io, number: number, release: release}
}

type periphPin struct {
	io      gpio.PinIO
	number  int
	release func()

	mu     sync.Mutex
	output bool
	closed bool
}

func (p *periphPin) Number() int {
	return p.number
}

// SetOutput switches the line to output, driven high so a low-switching
// relay stays de-energized.
func (p *periphPin) SetOutput() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPinClosed
	}
	if err := p.io.Out(gpio.High); err != nil {
		return fmt.Errorf("gpio %d to output: %w", p.number, err)
	}
	p.output = true
	return nil
}

func (p *periphPin) Write(level domain.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPinClosed
	}
	if !p.output {
		return ErrPinNotOutput
	}

	if err := p.io.Out(toPeriph(level)); err != nil {
		return fmt.Errorf("gpio %d out: %w", p.number, err)
	}
	return nil
}

func (p *periphPin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	defer p.release()

	if err := p.io.Halt(); err != nil {
		return fmt.Errorf("halting gpio %d: %w", p.number, err)
	}
	return nil
}

func toPeriph(level domain.Level) gpio.Level {
	if level == domain.LevelHigh {
		return gpio.High
	}
	return gpio.Low
}
