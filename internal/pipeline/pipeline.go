// Package pipeline runs the single sequential chain behind every promits
// invocation: compute the range, fetch the series, build the prompt, and
// request the analysis.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kubilitics/promits/internal/ai"
	"github.com/kubilitics/promits/internal/apperr"
	"github.com/kubilitics/promits/internal/logging"
	"github.com/kubilitics/promits/internal/metrics"
	"github.com/kubilitics/promits/internal/prom"
)

// State is a pipeline stage.
type State int

const (
	Idle State = iota
	RangeComputed
	MetricsFetched
	PromptBuilt
	AnalysisComplete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RangeComputed:
		return "range_computed"
	case MetricsFetched:
		return "metrics_fetched"
	case PromptBuilt:
		return "prompt_built"
	case AnalysisComplete:
		return "analysis_complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MetricsFetcher is satisfied by *prom.Client.
type MetricsFetcher interface {
	QueryRange(ctx context.Context, query string, r prom.TimeRange, step string) (*prom.Response, error)
}

// Analyzer is satisfied by *ai.Client.
type Analyzer interface {
	Analyze(ctx context.Context, model ai.Model, prompt string) (*ai.AnalysisResult, error)
}

// Request is one invocation's input.
type Request struct {
	Model        ai.Model
	LookbackDays int
	Query        string
	Step         string
}

// Outcome is the result of a completed run.
type Outcome struct {
	RunID           string
	Model           ai.Model
	LookbackDays    int
	Range           prom.TimeRange
	Metrics         prom.QueryResult
	Prompt          string
	EstimatedTokens int
	Analysis        *ai.AnalysisResult
	CostUSD         float64
}

// Observer is told about each state reached. It runs on the Run goroutine.
type Observer func(State, *Outcome)

type Pipeline struct {
	fetcher   MetricsFetcher
	analyzer  Analyzer
	tokenizer *ai.Tokenizer
	logger    *zap.Logger
	metrics   *metrics.Recorder
	observer  Observer
	now       func() time.Time
	newID     func() string
}

type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = r }
}

func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

func WithTokenizer(t *ai.Tokenizer) Option {
	return func(p *Pipeline) { p.tokenizer = t }
}

// WithClock fixes the time used as the range end.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithRunID fixes the run id, mostly for tests.
func WithRunID(id string) Option {
	return func(p *Pipeline) { p.newID = func() string { return id } }
}

func New(fetcher MetricsFetcher, analyzer Analyzer, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:  fetcher,
		analyzer: analyzer,
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes every stage in order and stops at the first error. On error
// no Outcome is returned.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	if !req.Model.Valid() {
		return nil, apperr.NewInput("run", "unsupported model %d", int(req.Model))
	}
	if req.LookbackDays <= 0 {
		return nil, apperr.NewInput("run", "lookback must be at least 1 day, got %d", req.LookbackDays)
	}

	out := &Outcome{RunID: p.newID(), Model: req.Model, LookbackDays: req.LookbackDays}
	log := logging.WithRun(p.logger, out.RunID)
	p.notify(Idle, out)

	out.Range = prom.RangeFromLookback(req.LookbackDays, p.now())
	log.Debug("range computed",
		zap.Int64("start", out.Range.Start),
		zap.Int64("end", out.Range.End),
		zap.Int("lookback_days", req.LookbackDays))
	p.notify(RangeComputed, out)

	started := time.Now()
	resp, err := p.fetcher.QueryRange(ctx, req.Query, out.Range, req.Step)
	p.metrics.ObserveRequest(apperr.Prometheus, time.Since(started), err)
	if err != nil {
		log.Debug("metrics fetch failed", zap.Error(err))
		return nil, fmt.Errorf("fetch metrics: %w", err)
	}
	out.Metrics = resp.Data
	for _, w := range resp.Warnings {
		log.Warn("prometheus warning", zap.String("warning", w))
	}
	p.metrics.ObserveFetch(len(out.Metrics.Result), out.Metrics.SampleCount())
	log.Debug("metrics fetched",
		zap.String("result_type", out.Metrics.ResultType),
		zap.Int("series", len(out.Metrics.Result)),
		zap.Int("samples", out.Metrics.SampleCount()))
	p.notify(MetricsFetched, out)

	out.Prompt, err = ai.BuildMetricPrompt(out.Metrics)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}
	var method string
	out.EstimatedTokens, method = p.tokenizer.Estimate(out.Prompt)
	if lerr := p.tokenizer.LoadErr(); lerr != nil {
		log.Debug("tiktoken unavailable, using heuristic", zap.Error(lerr))
	}
	log.Debug("prompt built",
		zap.Int("bytes", len(out.Prompt)),
		zap.Int("estimated_tokens", out.EstimatedTokens),
		zap.String("estimator", method))
	if out.EstimatedTokens > ai.LargePromptTokens {
		log.Warn("prompt is very large; consider a shorter lookback or a coarser step",
			zap.Int("estimated_tokens", out.EstimatedTokens))
	}
	p.notify(PromptBuilt, out)

	started = time.Now()
	analysis, err := p.analyzer.Analyze(ctx, req.Model, out.Prompt)
	p.metrics.ObserveRequest(apperr.Anthropic, time.Since(started), err)
	if err != nil {
		log.Debug("analysis failed", zap.Error(err))
		return nil, fmt.Errorf("analyze metrics: %w", err)
	}
	out.Analysis = analysis
	out.CostUSD = req.Model.EstimateCostUSD(analysis.Usage)
	p.metrics.ObserveUsage(req.Model.String(), analysis.Usage.InputTokens, analysis.Usage.OutputTokens, out.CostUSD)
	log.Info("analysis complete",
		zap.String("model", req.Model.String()),
		zap.Int("input_tokens", analysis.Usage.InputTokens),
		zap.Int("output_tokens", analysis.Usage.OutputTokens),
		zap.Float64("cost_usd", out.CostUSD))
	p.notify(AnalysisComplete, out)

	return out, nil
}

func (p *Pipeline) notify(s State, out *Outcome) {
	if p.observer != nil {
		p.observer(s, out)
	}
}
