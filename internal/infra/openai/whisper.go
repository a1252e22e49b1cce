// Package openai transcribes audio utterances with the Whisper API.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"alarm-light/internal/infra"
)

const defaultBaseURL = "https://api.openai.com/v1"

var ErrEmptyTranscription = errors.New("whisper returned no text")

type WhisperClient struct {
	client   *openai.Client
	language string
	retry    infra.RetryConfig
}

func NewWhisperClient(apiKey, language string) *WhisperClient {
	return NewWhisperClientWithURL(defaultBaseURL, apiKey, language)
}

// NewWhisperClientWithURL targets any OpenAI-compatible transcription
// service, such as a self-hosted whisper server.
func NewWhisperClientWithURL(baseURL, apiKey, language string) *WhisperClient {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimRight(baseURL, "/")
	config.HTTPClient = &http.Client{Timeout: 30 * time.Second}

	return &WhisperClient{
		client:   openai.NewClientWithConfig(config),
		language: language,
		retry:    infra.DefaultRetryConfig(),
	}
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("transcribing: empty audio")
	}

	var text string
	err := infra.WithRetry(ctx, c.retry, func() error {
		resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    openai.Whisper1,
			Reader:   bytes.NewReader(audio),
			FilePath: "audio.wav",
			Language: c.language,
		})
		if err != nil {
			return classify(err)
		}
		text = resp.Text
		return nil
	})
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyTranscription
	}
	return text, nil
}

// classify marks client errors as permanent. Transport failures, rate
// limiting and server errors stay retryable.
func classify(err error) error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	wrapped := fmt.Errorf("whisper transcription: %w", err)
	if status != 0 && !infra.IsRetryableHTTPStatus(status) {
		return infra.Permanent(wrapped)
	}
	return wrapped
}
