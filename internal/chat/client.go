// Package chat is the terminal client for the query service.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pdf-rag/internal/models"
)

const NoAnswer = "No answer found."

var ErrNotConfigured = errors.New("chat: API_URL not configured")

// StatusError is returned when the service answers with a non-200 status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat: unexpected status %d", e.Code)
}

// ConnectionError wraps transport and decoding failures.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return "chat: " + e.Err.Error() }

func (e *ConnectionError) Unwrap() error { return e.Err }

// Describe renders err the way it is shown inline under the transcript.
func Describe(err error) string {
	var statusErr *StatusError
	var connErr *ConnectionError
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "API_URL not configured."
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Error: %d", statusErr.Code)
	case errors.As(err, &connErr):
		return "Connection Error: " + connErr.Err.Error()
	default:
		return "Connection Error: " + err.Error()
	}
}

type Client struct {
	apiURL string
	http   *http.Client
}

// NewClient returns a client for the query service at apiURL. An empty
// apiURL is allowed; every Ask then fails with ErrNotConfigured.
func NewClient(apiURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{apiURL: apiURL, http: httpClient}
}

// Ask posts query and returns the answer field, or NoAnswer when the
// response has none.
func (c *Client) Ask(ctx context.Context, query string) (string, error) {
	if c.apiURL == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(models.QueryRequest{Query: query})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", &ConnectionError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode}
	}

	var payload struct {
		Answer *string `json:"answer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &ConnectionError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.Answer == nil {
		return NoAnswer, nil
	}
	return *payload.Answer, nil
}
