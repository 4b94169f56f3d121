// Package completion sends a prompt to the relay and returns the model's
// completion text.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/dpshade/promptpad/internal/errors"
)

// DefaultEndpoint is where the relay listens by default
const DefaultEndpoint = "http://localhost:3000/send-to-ia"

// Requester asks for a completion of text
type Requester interface {
	RequestCompletion(ctx context.Context, text string) (string, error)
}

// Request is the relay request body
type Request struct {
	Prompt string `json:"prompt"`
}

// Response is the relay success body
type Response struct {
	Response string `json:"response"`
}

// ErrorResponse is the relay failure body
type ErrorResponse struct {
	Error string `json:"error"`
}

// Client posts prompts to the relay. One request per call, no retries.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the given relay endpoint. A nil httpClient
// uses http.DefaultClient.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

// Endpoint returns the relay URL the client posts to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// RequestCompletion posts {"prompt": text} and returns the "response" field
// of a 2xx reply. Transport failures and non-2xx replies are RemoteErrors.
func (c *Client) RequestCompletion(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(Request{Prompt: text})
	if err != nil {
		return "", apperrors.RemoteError("encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.RemoteError("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.RemoteError("send prompt", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.RemoteError("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody ErrorResponse
		detail := string(data)
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			detail = errBody.Error
		}
		return "", apperrors.RemoteError("send prompt", fmt.Errorf("relay returned %d", resp.StatusCode)).
			WithDetails(detail).
			WithContext("status", resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", apperrors.RemoteError("decode response", err)
	}
	return out.Response, nil
}
