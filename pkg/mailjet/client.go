// Package mailjet provides a client for the Mailjet Send API v3.1.
package mailjet

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/thinkloop-ai/procure-cli/internal/resilience"
)

// Client defines the Mailjet operations used for outreach.
type Client interface {
	// Send submits messages and returns the per-message delivery status.
	Send(ctx context.Context, msgs ...Message) (*SendResponse, error)
}

// Address is a sender or recipient.
type Address struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

// Message is one Send API v3.1 message.
type Message struct {
	From     Address   `json:"From"`
	To       []Address `json:"To"`
	Subject  string    `json:"Subject"`
	TextPart string    `json:"TextPart,omitempty"`
	HTMLPart string    `json:"HTMLPart,omitempty"`
	CustomID string    `json:"CustomID,omitempty"`
}

type sendRequest struct {
	Messages []Message `json:"Messages"`
}

// SendResponse is the parsed Send API response.
type SendResponse struct {
	Messages []MessageResult `json:"Messages"`
}

// MessageResult is the delivery status of one submitted message.
type MessageResult struct {
	Status   string            `json:"Status"`
	CustomID string            `json:"CustomID"`
	To       []RecipientResult `json:"To"`
	Errors   []MessageError    `json:"Errors"`
}

// RecipientResult identifies an accepted recipient.
type RecipientResult struct {
	Email       string `json:"Email"`
	MessageUUID string `json:"MessageUUID"`
	MessageID   int64  `json:"MessageID"`
}

// MessageError is a per-message validation error.
type MessageError struct {
	ErrorIdentifier string `json:"ErrorIdentifier"`
	ErrorCode       string `json:"ErrorCode"`
	StatusCode      int    `json:"StatusCode"`
	ErrorMessage    string `json:"ErrorMessage"`
}

// Option configures the Mailjet client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *http.Client
}

// NewClient creates a Mailjet client authenticated with the API key pair.
func NewClient(apiKey, apiSecret string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   "https://api.mailjet.com",
		http:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts to /v3.1/send. A 401/403 yields a resilience.FatalError,
// 408/429/5xx a resilience.TransientError; any other non-2xx status, or a
// message reported as not successful, is a plain error.
func (c *httpClient) Send(ctx context.Context, msgs ...Message) (*SendResponse, error) {
	if len(msgs) == 0 {
		return nil, eris.New("mailjet: no messages")
	}

	payload, err := json.Marshal(sendRequest{Messages: msgs})
	if err != nil {
		return nil, eris.Wrap(err, "mailjet: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3.1/send", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "mailjet: create request")
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "mailjet: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "mailjet: read response body")
	}

	switch {
	case resilience.IsAuthHTTPStatus(resp.StatusCode):
		return nil, resilience.NewFatalError("mailjet", resp.StatusCode, snippet(body))
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("mailjet: status %d: %s", resp.StatusCode, snippet(body)), resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, eris.Errorf("mailjet: status %d: %s", resp.StatusCode, snippet(body))
	}

	var out SendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "mailjet: decode response")
	}
	for _, m := range out.Messages {
		if !strings.EqualFold(m.Status, "success") {
			detail := m.Status
			if len(m.Errors) > 0 {
				detail = m.Errors[0].ErrorMessage
			}
			return &out, eris.Errorf("mailjet: message not accepted: %s", detail)
		}
	}
	return &out, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
