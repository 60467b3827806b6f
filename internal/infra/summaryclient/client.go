package summaryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL matches the service's default listen port.
	DefaultBaseURL = "http://localhost:5001"

	summarizeTimeout = 30 * time.Second
	healthTimeout    = 5 * time.Second
)

type summarizeRequest struct {
	Text string `json:"text"`
}

type summarizeResponse struct {
	Success bool   `json:"success"`
	Summary string `json:"summary"`
	Error   string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Client calls a running summarization service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Summarize returns the generated summary for text. Unsuccessful responses
// surface the service's error message.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	payload, err := json.Marshal(summarizeRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("encode summarize request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/summarize", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build summarize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("summary service error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("summary service error: read response: %w", err)
	}
	var out summarizeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("summary service error: status=%d body=%s", resp.StatusCode, string(body))
	}
	if resp.StatusCode >= 300 || !out.Success {
		message := out.Error
		if message == "" {
			message = "service returned unsuccessful response"
		}
		return "", fmt.Errorf("summary service error: %w", errors.New(message))
	}
	return out.Summary, nil
}

// Healthy reports whether the service answers /health with status "healthy".
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	var out healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false
	}
	return out.Status == "healthy"
}
