// Package twilio provides a client for the Twilio Programmable Messaging API.
package twilio

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/thinkloop-ai/procure-cli/internal/resilience"
)

// Twilio error codes with special handling.
const (
	CodeAuthenticate   = 20003
	CodeInvalidTo      = 21211
	CodeNotPermitted   = 21408
	CodeUnverifiedDest = 21608
)

// Client defines the Twilio operations used for outreach.
type Client interface {
	// SendSMS sends body to the E.164 number to and returns the created message.
	SendSMS(ctx context.Context, to, body string) (*Message, error)
}

// Message is the subset of the Twilio message resource we read.
type Message struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
	To     string `json:"to"`
}

// APIError is a Twilio REST error body.
type APIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func (e *APIError) Error() string {
	return "twilio: " + e.Message
}

// Option configures the Twilio client.
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
	accountSID string
	authToken  string
	from       string
	baseURL    string
	http       *http.Client
}

// NewClient creates a Twilio client that sends from the given number.
func NewClient(accountSID, authToken, from string, opts ...Option) Client {
	c := &httpClient{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    "https://api.twilio.com",
		http:       &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) SendSMS(ctx context.Context, to, body string) (*Message, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := c.baseURL + "/2010-04-01/Accounts/" + url.PathEscape(c.accountSID) + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "twilio: create request")
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "twilio: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "twilio: read response body")
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, eris.Wrap(err, "twilio: decode message")
		}
		return &msg, nil
	}

	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	_ = json.Unmarshal(data, apiErr)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || apiErr.Code == CodeAuthenticate:
		return nil, resilience.NewFatalError("twilio", resp.StatusCode, apiErr.Message)
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(apiErr, resp.StatusCode)
	default:
		return nil, apiErr
	}
}
