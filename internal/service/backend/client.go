package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zhouzirui/supreme-chatbot/internal/model/chat"
)

// DefaultEndpoint is where the original widget posted user turns.
const DefaultEndpoint = "http://localhost:5000/api/chat"

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// Client posts user turns to the chat backend.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request. Zero keeps requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			hc := *c.httpClient
			hc.Timeout = timeout
			c.httpClient = &hc
		}
	}
}

// NewClient creates a backend client for the given endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send delivers one user message and returns the bot reply verbatim.
// Failures are one of *NetworkError, *ServerError or *MalformedResponseError.
func (c *Client) Send(ctx context.Context, userID, message string) (string, error) {
	payload, err := json.Marshal(chat.Request{UserID: userID, Message: message})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &ServerError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var reply chat.Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", &MalformedResponseError{Reason: "invalid json", Err: err}
	}
	if reply.Message == nil {
		return "", &MalformedResponseError{Reason: `missing "message" field`}
	}

	return *reply.Message, nil
}
