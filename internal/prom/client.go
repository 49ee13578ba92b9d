// Package prom is a minimal Prometheus HTTP API client for range queries.
package prom

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kubilitics/promits/internal/apperr"
)

const (
	// DefaultTimeout bounds each request unless WithTimeout overrides it.
	DefaultTimeout = 30 * time.Second
	// DefaultStep is the resolution of the range query.
	DefaultStep = "5m"
	// DefaultCPUQuery is the ratio of system-mode CPU time to CPU count for
	// the api-prod node.
	DefaultCPUQuery = "sum(irate(node_cpu_seconds_total{instance='api-prod',job='node_exporter', mode='system'}[5m])) / scalar(count(count(node_cpu_seconds_total{instance='api-prod',job='node_exporter'}) by (cpu)))"

	opQueryRange = "query_range"
	// maxResponseBytes caps how much of a response body is buffered.
	maxResponseBytes = 32 << 20
)

// Client queries a Prometheus-compatible API. BaseURL includes the API
// prefix, e.g. http://prometheus:9090/api/v1.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithTimeout sets the request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryRange issues POST {base}/query_range with a form-encoded body and
// returns the decoded envelope. A non-success status is an error.
func (c *Client) QueryRange(ctx context.Context, query string, r TimeRange, step string) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.NewInput(opQueryRange, "query expression is empty")
	}
	if strings.TrimSpace(step) == "" {
		step = DefaultStep
	}

	form := url.Values{}
	form.Set("query", query)
	form.Set("start", strconv.FormatInt(r.Start, 10))
	form.Set("end", strconv.FormatInt(r.End, 10))
	form.Set("step", step)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query_range", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperr.NewInput(opQueryRange, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.NewTransport(apperr.Prometheus, opQueryRange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperr.NewTransport(apperr.Prometheus, opQueryRange, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.NewBackend(apperr.Prometheus, opQueryRange, resp.StatusCode, string(body), errorMessage(body))
	}
	return decodeResponse(body)
}

func decodeResponse(body []byte) (*Response, error) {
	if err := validateShape(body); err != nil {
		return nil, apperr.NewDecode(apperr.Prometheus, opQueryRange, body, err)
	}
	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperr.NewDecode(apperr.Prometheus, opQueryRange, body, err)
	}
	if out.Status != StatusSuccess {
		msg := joinError(out.ErrorType, out.Error)
		if msg == "" {
			msg = "status " + strconv.Quote(out.Status)
		}
		return nil, apperr.NewBackend(apperr.Prometheus, opQueryRange, 0, "", msg)
	}
	if out.Data.ResultType == "" {
		return nil, apperr.NewDecode(apperr.Prometheus, opQueryRange, body, errors.New("success response has no data"))
	}
	return &out, nil
}

// errorMessage extracts the error field from a Prometheus error body, if
// the body is one.
func errorMessage(body []byte) string {
	var env struct {
		ErrorType string `json:"errorType"`
		Error     string `json:"error"`
	}
	if json.Unmarshal(body, &env) != nil {
		return ""
	}
	return joinError(env.ErrorType, env.Error)
}

func joinError(errorType, msg string) string {
	errorType, msg = strings.TrimSpace(errorType), strings.TrimSpace(msg)
	switch {
	case errorType == "":
		return msg
	case msg == "":
		return errorType
	default:
		return errorType + ": " + msg
	}
}
