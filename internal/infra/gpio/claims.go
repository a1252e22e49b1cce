// Package gpio provides the pin drivers behind application.GPIOProvider.
//
// Every provider enforces single ownership: a pin number can be opened again
// only after the previous holder closed it.
package gpio

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrPinClaimed   = errors.New("pin already claimed")
	ErrPinNotFound  = errors.New("pin not found")
	ErrPinClosed    = errors.New("pin closed")
	ErrPinNotOutput = errors.New("pin not configured for output")
)

type claims struct {
	mu   sync.Mutex
	held map[int]bool
}

func (c *claims) acquire(number int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.held == nil {
		c.held = make(map[int]bool)
	}
	if c.held[number] {
		return fmt.Errorf("pin %d: %w", number, ErrPinClaimed)
	}
	c.held[number] = true
	return nil
}

func (c *claims) release(number int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.held, number)
}
