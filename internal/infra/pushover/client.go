// Package pushover sends operator alerts through the Pushover API.
package pushover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"alarm-light/internal/infra"
)

const (
	defaultEndpoint = "https://api.pushover.net/1/messages.json"
	title           = "Alarm Light"
)

type Client struct {
	token      string
	userKey    string
	endpoint   string
	httpClient *http.Client
	retry      infra.RetryConfig
}

func NewClient(token, userKey string) *Client {
	return NewClientWithEndpoint(defaultEndpoint, token, userKey)
}

func NewClientWithEndpoint(endpoint, token, userKey string) *Client {
	return &Client{
		token:      token,
		userKey:    userKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      infra.DefaultRetryConfig(),
	}
}

// apiResponse is the body Pushover returns for both accepted and rejected
// messages. Status 1 means accepted.
type apiResponse struct {
	Status  int      `json:"status"`
	Request string   `json:"request"`
	Errors  []string `json:"errors"`
}

// Notify is a no-op when credentials are missing. Rate limiting and server
// errors are retried; rejected messages are not.
func (c *Client) Notify(ctx context.Context, message string) error {
	if c.token == "" || c.userKey == "" {
		return nil
	}

	form := url.Values{
		"token":   {c.token},
		"user":    {c.userKey},
		"message": {message},
		"title":   {title},
	}.Encode()

	return infra.WithRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form))
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending notification: %w", err)
		}
		defer resp.Body.Close()

		var body apiResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)

		if resp.StatusCode == http.StatusOK && body.Status == 1 {
			return nil
		}

		apiErr := fmt.Errorf("pushover error: %s", resp.Status)
		if len(body.Errors) > 0 {
			apiErr = fmt.Errorf("pushover error: %s: %s", resp.Status, strings.Join(body.Errors, "; "))
		}
		if infra.IsRetryableHTTPStatus(resp.StatusCode) {
			return apiErr
		}
		return infra.Permanent(apiErr)
	})
}
