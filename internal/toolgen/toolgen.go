// Package toolgen calls the external tool-generation service that
// authors function tools from a business description.
package toolgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/sungrove/voiceboard-go/internal/canvas"
	"github.com/sungrove/voiceboard-go/internal/logx"
)

// Request describes the business context the service generates from.
type Request struct {
	BusinessType        string `json:"business_type"`
	BusinessName        string `json:"business_name"`
	BusinessDescription string `json:"business_description,omitempty"`
	Requirements        string `json:"requirements,omitempty"`
	FileAnalysis        string `json:"file_analysis,omitempty"`
	ToolConfiguration   string `json:"tool_configuration,omitempty"`
}

// Client talks to the tool-generation service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a tool-generation client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// Generate requests function tools for the given business context.
func (c *Client) Generate(ctx context.Context, req Request) ([]canvas.FunctionTool, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate-tools", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling tool generation service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tool generation: status %d: %s", resp.StatusCode, string(data))
	}

	var out struct {
		Tools []canvas.FunctionTool `json:"tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding tool generation response: %w", err)
	}
	return out.Tools, nil
}

// GenerateOrFallback never fails: on any service error it returns the
// fixed generic tool set so the node keeps a usable capability and the
// surrounding save is not aborted.
func (c *Client) GenerateOrFallback(ctx context.Context, req Request) []canvas.FunctionTool {
	tools, err := c.Generate(ctx, req)
	if err != nil || len(tools) == 0 {
		if err != nil {
			logx.Warn().Err(err).Msg("tool generation failed, using generic tools")
		}
		return GenericTools(req.BusinessName)
	}
	return tools
}

// GenericTools is the fallback bundle: a business-info lookup.
func GenericTools(businessName string) []canvas.FunctionTool {
	return []canvas.FunctionTool{
		{
			Name:        "get_business_info",
			Description: "Look up general information about " + businessName + " such as hours, location, and services.",
			JSONSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"topic": {Type: "string", Description: "What the caller wants to know, e.g. hours, location, services"},
				},
				Required: []string{"topic"},
			},
		},
	}
}
