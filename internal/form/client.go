package form

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devswami/portfolio/internal/contact"
)

// DefaultAPIURL is used when no API base URL is configured.
const DefaultAPIURL = "http://localhost:4000"

// Submitter delivers a trimmed submission.
type Submitter interface {
	Submit(ctx context.Context, sub contact.Submission) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, sub contact.Submission) error

// Submit calls f(ctx, sub).
func (f SubmitterFunc) Submit(ctx context.Context, sub contact.Submission) error {
	return f(ctx, sub)
}

// APIError is a non-2xx answer from the contact endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("contact api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("contact api: status %d: %s", e.StatusCode, e.Message)
}

// NetworkError wraps a failure to reach the endpoint at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "contact api unreachable: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// Client posts submissions as JSON to {BaseURL}/api/contact.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a Client for baseURL, falling back to DefaultAPIURL.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type apiResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// Submit posts sub and maps the response to an error.
func (c *Client) Submit(ctx context.Context, sub contact.Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/contact", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	resp, err := hc.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload apiResponse
		_ = json.Unmarshal(data, &payload)
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Message}
	}

	return nil
}
