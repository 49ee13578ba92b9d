package prom

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// StatusSuccess is the envelope status of a successful query.
const StatusSuccess = "success"

// Response is the Prometheus HTTP API envelope for a range query.
type Response struct {
	Status    string      `json:"status"`
	Data      QueryResult `json:"data"`
	ErrorType string      `json:"errorType,omitempty"`
	Error     string      `json:"error,omitempty"`
	Warnings  []string    `json:"warnings,omitempty"`
}

// QueryResult is the data portion of the envelope. Field order here is the
// serialization order used in prompts.
type QueryResult struct {
	ResultType string   `json:"resultType" yaml:"resultType"`
	Result     []Series `json:"result" yaml:"result"`
}

// SampleCount is the total number of samples across all series.
func (q QueryResult) SampleCount() int {
	n := 0
	for _, s := range q.Result {
		n += len(s.Values)
	}
	return n
}

// Series is one label set and its samples, in backend order.
type Series struct {
	Metric map[string]string `json:"metric" yaml:"metric"`
	Values []Sample          `json:"values" yaml:"values"`
}

// Sample is a single (timestamp, value) pair. On the wire it is the
// two-element array [<unix seconds float>, "<value>"].
type Sample struct {
	Timestamp float64
	Value     string
}

func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{s.Timestamp, s.Value})
}

func (s *Sample) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("sample: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("sample: want 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &s.Timestamp); err != nil {
		return fmt.Errorf("sample timestamp: %w", err)
	}
	if err := json.Unmarshal(raw[1], &s.Value); err != nil {
		return fmt.Errorf("sample value: %w", err)
	}
	return nil
}

// MarshalYAML renders the sample as a flow sequence, matching the JSON form.
func (s Sample) MarshalYAML() (any, error) {
	return []any{s.Timestamp, s.Value}, nil
}

// Float parses the sample value. Prometheus encodes NaN and ±Inf as strings
// that ParseFloat accepts.
func (s Sample) Float() (float64, error) {
	return strconv.ParseFloat(s.Value, 64)
}
