// Package persist sends compiled agent configurations to the agent
// runtime API and coordinates the autosave loop.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sungrove/voiceboard-go/internal/compile"
)

// RuntimeAPI is the consumed surface of the agent runtime service.
type RuntimeAPI interface {
	CreateAgent(ctx context.Context, cfg *compile.AgentConfig) (*compile.AgentConfig, error)
	UpdateAgent(ctx context.Context, id string, cfg *compile.AgentConfig) (*compile.AgentConfig, error)
	GetAgent(ctx context.Context, id string) (*compile.AgentConfig, error)
}

// Client is the HTTP implementation of RuntimeAPI.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a runtime API client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateAgent implements RuntimeAPI.
func (c *Client) CreateAgent(ctx context.Context, cfg *compile.AgentConfig) (*compile.AgentConfig, error) {
	return c.do(ctx, http.MethodPost, "/v1/agents", cfg)
}

// UpdateAgent implements RuntimeAPI. The update payload carries full
// tool objects, same contract as create.
func (c *Client) UpdateAgent(ctx context.Context, id string, cfg *compile.AgentConfig) (*compile.AgentConfig, error) {
	return c.do(ctx, http.MethodPut, "/v1/agents/"+id, cfg)
}

// GetAgent implements RuntimeAPI.
func (c *Client) GetAgent(ctx context.Context, id string) (*compile.AgentConfig, error) {
	return c.do(ctx, http.MethodGet, "/v1/agents/"+id, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body *compile.AgentConfig) (*compile.AgentConfig, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding agent config: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling runtime API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("runtime API %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}

	var out compile.AgentConfig
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding runtime API response: %w", err)
	}
	return &out, nil
}
