//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"

	"alarm-light/internal/domain"
)

const (
	framesPerBuffer  = 1024
	silenceThreshold = int16(500)
)

// MicrophoneSource captures utterances from the default input device. An
// utterance ends after a second of silence or ten seconds of audio.
type MicrophoneSource struct {
	sampleRate int
	logger     *slog.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
	frame  []int16
}

func NewMicrophoneSource(sampleRate int, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		sampleRate: sampleRate,
		logger:     logger,
		frame:      make([]int16, framesPerBuffer),
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(m.frame), m.frame)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.stream = stream
	m.logger.Info("microphone started", "sample_rate", m.sampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil
	}
	m.stream.Stop()
	m.stream.Close()
	m.stream = nil
	return portaudio.Terminate()
}

func (m *MicrophoneSource) NextUtterance(ctx context.Context) (domain.Utterance, error) {
	samples := make([]int16, 0, m.sampleRate*5)
	silent := 0
	heard := false

	for {
		select {
		case <-ctx.Done():
			return domain.Utterance{}, ctx.Err()
		default:
		}

		m.mu.Lock()
		if m.stream == nil {
			m.mu.Unlock()
			return domain.Utterance{}, ErrSourceClosed
		}
		err := m.stream.Read()
		frame := append([]int16(nil), m.frame...)
		m.mu.Unlock()
		if err != nil {
			return domain.Utterance{}, fmt.Errorf("reading from stream: %w", err)
		}

		if isSilent(frame, silenceThreshold) {
			if !heard {
				continue
			}
			silent += len(frame)
		} else {
			heard = true
			silent = 0
		}
		samples = append(samples, frame...)

		if silent > m.sampleRate || len(samples) > m.sampleRate*10 {
			break
		}
	}

	wavData, err := EncodeWAV(samples, m.sampleRate)
	if err != nil {
		return domain.Utterance{}, err
	}
	return domain.Utterance{ID: uuid.NewString(), Audio: wavData}, nil
}
