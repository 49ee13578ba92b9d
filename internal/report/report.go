// Package report renders a finished run to stdout.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kubilitics/promits/internal/ai"
	"github.com/kubilitics/promits/internal/apperr"
	"github.com/kubilitics/promits/internal/pipeline"
)

// Formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type Report struct {
	RunID           string   `json:"run_id" yaml:"run_id"`
	Model           string   `json:"model" yaml:"model"`
	LookbackDays    int      `json:"lookback_days" yaml:"lookback_days"`
	Range           Range    `json:"range" yaml:"range"`
	Series          int      `json:"series" yaml:"series"`
	Samples         int      `json:"samples" yaml:"samples"`
	EstimatedTokens int      `json:"estimated_prompt_tokens" yaml:"estimated_prompt_tokens"`
	Usage           ai.Usage `json:"usage" yaml:"usage"`
	CostUSD         float64  `json:"estimated_cost_usd" yaml:"estimated_cost_usd"`
	StopReason      string   `json:"stop_reason,omitempty" yaml:"stop_reason,omitempty"`
	Analysis        string   `json:"analysis" yaml:"analysis"`
}

type Range struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// FromOutcome flattens a pipeline outcome.
func FromOutcome(o *pipeline.Outcome) Report {
	r := Report{
		RunID:           o.RunID,
		Model:           o.Model.String(),
		LookbackDays:    o.LookbackDays,
		Range:           Range{Start: o.Range.StartTime(), End: o.Range.EndTime()},
		Series:          len(o.Metrics.Result),
		Samples:         o.Metrics.SampleCount(),
		EstimatedTokens: o.EstimatedTokens,
		CostUSD:         o.CostUSD,
	}
	if o.Analysis != nil {
		r.Usage = o.Analysis.Usage
		r.StopReason = o.Analysis.StopReason
		r.Analysis = o.Analysis.Text()
	}
	return r
}

// Render writes o to w in format.
func Render(w io.Writer, format string, o *pipeline.Outcome) error {
	if o == nil || o.Analysis == nil {
		return apperr.NewInput("render", "no analysis to render")
	}
	switch format {
	case FormatText, "":
		return renderText(w, o.Analysis)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(FromOutcome(o))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(FromOutcome(o)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return apperr.NewInput("render", "unknown output format %q", format)
	}
}

// renderText keeps the historical "Ouput" label.
func renderText(w io.Writer, a *ai.AnalysisResult) error {
	_, err := fmt.Fprintf(w, "Usage Token Input: %d\nUsage Token Ouput: %d\n%s\n",
		a.Usage.InputTokens, a.Usage.OutputTokens, a.Text())
	return err
}
