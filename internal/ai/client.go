// Package ai talks to an Anthropic-compatible messages API and builds the
// metric analysis prompt.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kubilitics/promits/internal/apperr"
)

const (
	DefaultTimeout   = 30 * time.Second
	AnthropicVersion = "2023-06-01"

	opMessages       = "messages"
	maxResponseBytes = 8 << 20
)

// Client issues single, non-streaming completion requests.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient returns a client for baseURL, which includes the version
// prefix, e.g. https://api.anthropic.com/v1.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze sends prompt as the single user message and returns the decoded
// completion. The returned result always has at least one content block.
func (c *Client) Analyze(ctx context.Context, model Model, prompt string) (*AnalysisResult, error) {
	if !model.Valid() {
		return nil, apperr.NewInput(opMessages, "model is not one of the supported identifiers")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, apperr.NewInput(opMessages, "prompt is empty")
	}
	if c.apiKey == "" {
		return nil, apperr.NewInput(opMessages, "API key is empty")
	}

	payload := MessagesRequest{
		Model:     model.String(),
		MaxTokens: MaxTokens,
		Messages:  []Message{{Role: "user", Content: prompt}},
	}
	body, err := c.postJSON(ctx, c.baseURL+"/messages", payload)
	if err != nil {
		return nil, err
	}
	return decodeResult(body)
}

func (c *Client) postJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.NewInput(opMessages, "encode request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, apperr.NewInput(opMessages, "build request: %v", err)
	}
	req.Header.Set("anthropic-version", AnthropicVersion)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.NewTransport(apperr.Anthropic, opMessages, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperr.NewTransport(apperr.Anthropic, opMessages, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.NewBackend(apperr.Anthropic, opMessages, resp.StatusCode, string(body), errorMessage(body))
	}
	return body, nil
}

func decodeResult(body []byte) (*AnalysisResult, error) {
	// Proxies sometimes answer 200 with an error envelope.
	if msg := errorMessage(body); msg != "" {
		return nil, apperr.NewBackend(apperr.Anthropic, opMessages, 0, string(body), msg)
	}
	if err := validateShape(body); err != nil {
		return nil, apperr.NewDecode(apperr.Anthropic, opMessages, body, err)
	}
	var out AnalysisResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperr.NewDecode(apperr.Anthropic, opMessages, body, err)
	}
	if len(out.Content) == 0 {
		return nil, apperr.NewDecode(apperr.Anthropic, opMessages, body, errors.New("response has no content blocks"))
	}
	return &out, nil
}

func errorMessage(body []byte) string {
	var e apiError
	if json.Unmarshal(body, &e) != nil || e.Type != "error" || e.Error.Message == "" {
		return ""
	}
	if e.Error.Type == "" {
		return e.Error.Message
	}
	return e.Error.Type + ": " + e.Error.Message
}
