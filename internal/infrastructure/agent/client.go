package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anycrm/backend/internal/application/enrichment"
)

// maxResponseSize is the maximum allowed response size from the agent (1MB)
const defaultMaxResponseSize = 1 * 1024 * 1024

// ErrAgentNotConfigured indicates that no agent endpoint has been configured
var ErrAgentNotConfigured = errors.New("agent: endpoint not configured")

// ErrAgentUnavailable indicates the agent could not be reached
var ErrAgentUnavailable = errors.New("agent: unavailable")

// ErrAgentRequestFailed indicates the agent rejected the request
var ErrAgentRequestFailed = errors.New("agent: request failed")

// runPayload is the JSON body sent to the agent's run endpoint
type runPayload struct {
	Prompt  string `json:"prompt"`
	Webhook string `json:"webhook"`
}

// Client dispatches enrichment runs to an external agent over HTTP
type Client struct {
	httpClient      *http.Client
	maxResponseSize int64
}

var _ enrichment.AgentClient = (*Client)(nil)

// Option configures the client
type Option func(*Client)

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithMaxResponseSize caps how much of the agent response is read
func WithMaxResponseSize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxResponseSize = size
		}
	}
}

// NewClient creates a new agent client
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxResponseSize: defaultMaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run asks the agent to start an enrichment run. The agent replies over the
// webhook URL once it has a result, so any 2xx response here only means the
// run was accepted.
func (c *Client) Run(ctx context.Context, run enrichment.AgentRunRequest) error {
	if run.AgentURL == "" {
		return ErrAgentNotConfigured
	}

	body, err := json.Marshal(runPayload{Prompt: run.Prompt, Webhook: run.Webhook})
	if err != nil {
		return fmt.Errorf("agent: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, run.AgentURL+"/run", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("agent: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if run.APIKey != "" {
		req.Header.Set("x-api-key", run.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxResponseSize))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", ErrAgentRequestFailed, resp.StatusCode)
	}

	return nil
}
