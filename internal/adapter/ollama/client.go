// Package ollama is the completion client for the chat engine. The endpoint
// streams its answer as line-delimited JSON fragments; the client joins the
// fragment contents into a single string.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrMalformedFragment marks a response line that is not valid JSON. A
// malformed line aborts the whole call; fragments are never silently skipped.
var ErrMalformedFragment = errors.New("malformed response fragment")

// StatusError reports a non-success HTTP status from the completion endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion api error: status %d", e.Code)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Fragment is one line of the streamed response.
type Fragment struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type Client struct {
	endpoint string
	model    string
	client   *http.Client
}

func NewClient(endpoint, model string) *Client {
	return &Client{
		endpoint: endpoint,
		model:    model,
		// Completions over long transcripts are slow; the per-request
		// context still bounds each call.
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Chat sends a system+user message pair and returns the joined fragment
// contents. Non-2xx responses return *StatusError; an unparseable fragment
// returns an error wrapping ErrMalformedFragment.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var parts []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var frag Fragment
		if err := json.Unmarshal([]byte(line), &frag); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedFragment, err)
		}
		parts = append(parts, frag.Message.Content)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading completion stream: %w", err)
	}

	return strings.Join(parts, " "), nil
}
