package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Notifier pushes human-readable alerts (startup failure, light changes) to
// the operator. Delivery failures are logged by the caller and never affect
// actuation.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NoopNotifier struct{}

func (n *NoopNotifier) Notify(_ context.Context, _ string) error {
	return nil
}

var (
	ErrNotifierClosed  = errors.New("notifier closed")
	ErrNotifyQueueFull = errors.New("notification queue full")
)

const notifyTimeout = 30 * time.Second

// AsyncNotifier hands messages to a single worker so a slow backend never
// holds up the recognition goroutine. When the queue is full new messages
// are dropped.
type AsyncNotifier struct {
	next   Notifier
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan string
	done   chan struct{}
}

func NewAsyncNotifier(next Notifier, size int, logger *slog.Logger) *AsyncNotifier {
	a := &AsyncNotifier{
		next:   next,
		logger: logger,
		queue:  make(chan string, size),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncNotifier) run() {
	defer close(a.done)
	for msg := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		if err := a.next.Notify(ctx, msg); err != nil {
			a.logger.Error("sending notification", "message", msg, "error", err)
		}
		cancel()
	}
}

// Notify queues message and returns at once.
func (a *AsyncNotifier) Notify(_ context.Context, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrNotifierClosed
	}
	select {
	case a.queue <- message:
		return nil
	default:
		return ErrNotifyQueueFull
	}
}

// Close stops accepting messages and waits for the queued ones to be sent,
// or for ctx to end. Calling it again only waits.
func (a *AsyncNotifier) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining notifications: %w", ctx.Err())
	}
}
