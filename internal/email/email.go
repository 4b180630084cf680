// Package email delivers transactional mail through the Resend HTTP API.
// The rest of the app depends only on the Mailer interface so tests and
// keyless development environments can swap the transport.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.resend.com"
	defaultTimeout = 10 * time.Second
)

// Message is one outbound email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Mailer sends a message and returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Client talks to the Resend API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// Option adjusts a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// Send posts the message to the API. Any non-2xx status is returned as an
// error carrying the provider's message when one is available.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("email: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("email: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("email: send: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("email: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return "", fmt.Errorf("email: provider rejected message (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("email: provider returned status %d", resp.StatusCode)
	}

	var out sendResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("email: decode response: %w", err)
	}
	return out.ID, nil
}

// LogMailer writes the message to the log instead of sending it. Used when
// no API key is configured so local development still shows the full flow.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) (string, error) {
	slog.Info("==========================================")
	slog.Info("📧 EMAIL (not sent, no API key configured)")
	slog.Info("To: " + strings.Join(msg.To, ", "))
	slog.Info("Reply-To: " + msg.ReplyTo)
	slog.Info("Subject: " + msg.Subject)
	slog.Info("==========================================")
	return fmt.Sprintf("log-%d", time.Now().UnixNano()), nil
}
