// Package sheets calls the external spreadsheet linking service.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sungrove/voiceboard-go/internal/canvas"
)

// LinkRequest identifies the spreadsheet and the tool category it will
// back. The service validates access and returns the binding.
type LinkRequest struct {
	SpreadsheetURL string `json:"spreadsheet_url"`
	ToolType       string `json:"tool_type"`
}

// Client talks to the spreadsheet linking service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a spreadsheet linking client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// Link resolves a spreadsheet URL into a binding that is stored
// verbatim on the tool node's payload.
func (c *Client) Link(ctx context.Context, req LinkRequest) (*canvas.SheetBinding, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sheets/link", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling sheet linking service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sheet linking: status %d: %s", resp.StatusCode, string(data))
	}

	var binding canvas.SheetBinding
	if err := json.NewDecoder(resp.Body).Decode(&binding); err != nil {
		return nil, fmt.Errorf("decoding sheet binding: %w", err)
	}
	return &binding, nil
}
