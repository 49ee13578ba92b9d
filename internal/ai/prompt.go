package ai

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kubilitics/promits/internal/prom"
)

// MetricPromptPreamble precedes the serialized query result.
const MetricPromptPreamble = "This is a CPU metric from Prometheus. Please analyze the data, check for any anomalies, and provide a summary.\n\nData:\n"

// BuildMetricPrompt renders result as indented JSON under the analysis
// instructions. Output is byte-stable for equal input: struct fields keep
// declaration order and label maps are emitted with sorted keys.
func BuildMetricPrompt(result prom.QueryResult) (string, error) {
	block, err := marshalResult(result)
	if err != nil {
		return "", fmt.Errorf("serialize metric result: %w", err)
	}
	return MetricPromptPreamble + block, nil
}

func marshalResult(result prom.QueryResult) (string, error) {
	if result.Result == nil {
		result.Result = []prom.Series{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
