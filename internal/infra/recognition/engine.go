// Package recognition runs continuous speech recognition over an utterance
// source, constrained by a phrase grammar.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/afero"

	"alarm-light/internal/application"
	"alarm-light/internal/domain"
	"alarm-light/internal/infra/grammar"
)

var (
	ErrNotCompiled    = errors.New("constraints not compiled")
	ErrAlreadyStarted = errors.New("continuous recognition already started")
	ErrEngineClosed   = errors.New("recognition engine closed")
)

// sourceErrorBackoff spaces out retries when the source keeps failing.
const sourceErrorBackoff = 250 * time.Millisecond

type Config struct {
	Source      application.UtteranceSource
	STT         application.SpeechToText
	FS          afero.Fs
	GrammarPath string
	Observer    application.Observer
	Logger      *slog.Logger
}

// Engine delivers one result per utterance on a single goroutine.
type Engine struct {
	source      application.UtteranceSource
	stt         application.SpeechToText
	fs          afero.Fs
	grammarPath string
	observer    application.Observer
	logger      *slog.Logger

	mu      sync.Mutex
	grammar *grammar.Grammar
	started bool
	stopped bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
	state   domain.EngineState
}

func NewEngine(cfg Config) *Engine {
	if cfg.STT == nil {
		cfg.STT = &application.NoopSTT{}
	}
	if cfg.Observer == nil {
		cfg.Observer = application.NoopObserver{}
	}
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}
	return &Engine{
		source:      cfg.Source,
		stt:         cfg.STT,
		fs:          cfg.FS,
		grammarPath: cfg.GrammarPath,
		observer:    cfg.Observer,
		logger:      cfg.Logger,
		state:       domain.EngineIdle,
	}
}

func (e *Engine) Name() string {
	return "grammar/" + e.source.Name()
}

func (e *Engine) CompileConstraints(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	g, err := grammar.Load(e.fs, e.grammarPath)
	if err != nil {
		return err
	}
	e.grammar = g
	e.logger.Info("grammar compiled", "path", e.grammarPath, "tag", g.Tag(), "phrases", g.Len())
	return nil
}

func (e *Engine) StartContinuous(ctx context.Context, handler application.ResultHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.closed:
		return ErrEngineClosed
	case e.grammar == nil:
		return ErrNotCompiled
	case e.started:
		return ErrAlreadyStarted
	}

	if err := e.source.Start(ctx); err != nil {
		return fmt.Errorf("starting %s source: %w", e.source.Name(), err)
	}

	// The loop outlives the start call; only StopContinuous ends it.
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	e.done = make(chan struct{})
	e.started = true

	go e.run(loopCtx, e.grammar, handler, e.done)

	e.logger.Info("continuous recognition started", "source", e.source.Name())
	return nil
}

func (e *Engine) run(ctx context.Context, g *grammar.Grammar, handler application.ResultHandler, done chan struct{}) {
	defer close(done)
	defer e.setState(domain.EngineStopped)

	for {
		e.setState(domain.EngineCapturing)
		u, err := e.source.NextUtterance(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, application.ErrSourceClosed) {
				return
			}
			e.logger.Warn("reading utterance", "source", e.source.Name(), "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(sourceErrorBackoff):
			}
			continue
		}

		e.setState(domain.EngineProcessing)
		result := e.recognize(ctx, g, u)

		// A stop that landed while transcribing wins over the result.
		if ctx.Err() != nil {
			return
		}
		handler(ctx, result)
	}
}

func (e *Engine) recognize(ctx context.Context, g *grammar.Grammar, u domain.Utterance) domain.RecognitionResult {
	result := domain.RecognitionResult{
		ID:            u.ID,
		Text:          u.Text,
		ConstraintTag: g.Tag(),
	}

	if u.IsInterpreted() {
		result.Status = domain.StatusSuccess
		result.Properties = u.Properties
		return result
	}

	text := u.Text
	if !u.IsText() {
		transcribed, err := e.stt.Transcribe(ctx, u.Audio)
		if err != nil {
			e.logger.Error("transcribing utterance", "event_id", u.ID, "bytes", len(u.Audio), "error", err)
			result.Status = domain.StatusAudioFailed
			return result
		}
		e.logger.Debug("transcription", "event_id", u.ID, "text", transcribed)
		text = transcribed
		result.Text = transcribed
	}

	props, ok := g.Match(text)
	if !ok {
		result.Status = domain.StatusNoMatch
		return result
	}
	result.Status = domain.StatusSuccess
	result.Properties = props
	return result
}

// StopContinuous cancels the loop, stops the source and waits for the loop to
// exit. Once it returns nil the handler is not running and will not run again.
func (e *Engine) StopContinuous(ctx context.Context) error {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return nil
	}
	e.stopped = true
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	cancel()

	var errs []error
	if err := e.source.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping %s source: %w", e.source.Name(), err))
	}

	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("waiting for recognizer to stop: %w", ctx.Err()))
	}

	e.logger.Info("continuous recognition stopped", "source", e.source.Name())
	return errors.Join(errs...)
}

// Close stops recognition if it is still running and drops the grammar.
// Calling it again does nothing.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := e.StopContinuous(ctx)

	e.mu.Lock()
	e.grammar = nil
	e.mu.Unlock()
	e.setState(domain.EngineStopped)
	return err
}

func (e *Engine) State() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(state domain.EngineState) {
	e.mu.Lock()
	prev := e.state
	e.state = state
	e.mu.Unlock()

	if prev == state {
		return
	}
	e.logger.Debug("speech recognizer state", "from", prev, "to", state)
	e.observer.EngineStateChanged(state)
}
