package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

// EncodeWAV packs mono 16-bit PCM samples into a WAV file.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	// The encoder patches the header on Close, so it needs a seekable writer.
	f, err := afero.NewMemMapFs().Create("utterance.wav")
	if err != nil {
		return nil, fmt.Errorf("creating wav buffer: %w", err)
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing wav: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding wav buffer: %w", err)
	}
	return io.ReadAll(f)
}

// isSilent reports whether every sample stays within threshold.
func isSilent(samples []int16, threshold int16) bool {
	for _, s := range samples {
		if s > threshold || s < -threshold {
			return false
		}
	}
	return true
}
