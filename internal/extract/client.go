package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client posts uploaded files to the document/image extraction service
// and returns the raw text it produces.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an extraction client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// ExtractText submits file contents for extraction. A failure yields
// empty text rather than aborting the caller's flow; the error is
// still returned for logging.
func (c *Client) ExtractText(ctx context.Context, filename string, contents []byte) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"filename": filename,
		"contents": contents,
	})
	if err != nil {
		return "", fmt.Errorf("encoding file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling extraction service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("extraction: status %d: %s", resp.StatusCode, string(data))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding extraction response: %w", err)
	}
	return out.Text, nil
}
