package application

import (
	"context"
	"errors"

	"alarm-light/internal/domain"
)

// ErrSourceClosed is returned by NextUtterance once the source stopped.
var ErrSourceClosed = errors.New("utterance source closed")

// UtteranceSource feeds the recognition engine one utterance at a time.
type UtteranceSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextUtterance(ctx context.Context) (domain.Utterance, error)
	Name() string
}
