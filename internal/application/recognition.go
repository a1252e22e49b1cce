package application

import (
	"context"

	"alarm-light/internal/domain"
)

// ResultHandler receives recognition results. Engines call it from their own
// goroutine, one result at a time.
type ResultHandler func(ctx context.Context, result domain.RecognitionResult)

// RecognitionEngine is a single-use continuous recognizer.
type RecognitionEngine interface {
	// CompileConstraints loads and compiles the grammar. It must succeed
	// before StartContinuous.
	CompileConstraints(ctx context.Context) error

	// StartContinuous begins delivering results to handler.
	StartContinuous(ctx context.Context, handler ResultHandler) error

	// StopContinuous returns once the engine has acknowledged the stop. No
	// handler invocation is running or will start after it returns.
	StopContinuous(ctx context.Context) error

	Close() error
	Name() string
}
