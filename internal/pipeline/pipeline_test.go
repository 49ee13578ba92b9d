package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kubilitics/promits/internal/ai"
	"github.com/kubilitics/promits/internal/apperr"
	"github.com/kubilitics/promits/internal/metrics"
	"github.com/kubilitics/promits/internal/prom"
)

const scenarioAMetrics = `{"status":"success","data":{"resultType":"matrix","result":[` +
	`{"metric":{"instance":"api-prod"},"values":[[1700000000.0,"0.42"],[1700000300.0,"0.47"]]}]}}`

const scenarioBAnalysis = `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-20250514",` +
	`"usage":{"input_tokens":120,"output_tokens":340},"content":[{"type":"text","text":"No anomalies detected."}]}`

var fixedNow = time.Unix(1700600000, 0)

func newBackends(t *testing.T, promBody, aiBody string, promHits, aiHits *int32, gotPrompt *string) (*prom.Client, *ai.Client) {
	t.Helper()
	promSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(promHits, 1)
		_, _ = io.WriteString(w, promBody)
	}))
	t.Cleanup(promSrv.Close)
	aiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(aiHits, 1)
		var req ai.MessagesRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if gotPrompt != nil && len(req.Messages) == 1 {
			*gotPrompt = req.Messages[0].Content
		}
		_, _ = io.WriteString(w, aiBody)
	}))
	t.Cleanup(aiSrv.Close)
	return prom.NewClient(promSrv.URL), ai.NewClient(aiSrv.URL, "sk-test")
}

func TestRunScenarioAEmbedsSamplesInOrder(t *testing.T) {
	var promHits, aiHits int32
	var prompt string
	pc, ac := newBackends(t, scenarioAMetrics, scenarioBAnalysis, &promHits, &aiHits, &prompt)

	out, err := New(pc, ac, WithClock(func() time.Time { return fixedNow })).Run(context.Background(), Request{
		Model: ai.ClaudeSonnet4, LookbackDays: 8, Query: prom.DefaultCPUQuery, Step: prom.DefaultStep,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, ai.MetricPromptPreamble))
	first, second := strings.Index(prompt, `"0.42"`), strings.Index(prompt, `"0.47"`)
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.Contains(t, prompt, `"instance": "api-prod"`)
	assert.Equal(t, out.Prompt, prompt)

	assert.Equal(t, prom.TimeRange{Start: 1700600000 - 8*86400, End: 1700600000}, out.Range)
	assert.Equal(t, 2, out.Metrics.SampleCount())
	assert.EqualValues(t, 1, promHits)
	assert.EqualValues(t, 1, aiHits)
}

func TestRunScenarioBUsageAndText(t *testing.T) {
	var promHits, aiHits int32
	pc, ac := newBackends(t, scenarioAMetrics, scenarioBAnalysis, &promHits, &aiHits, nil)
	rec := metrics.New()

	out, err := New(pc, ac, WithMetrics(rec), WithRunID("run-b")).Run(context.Background(), Request{
		Model: ai.ClaudeSonnet4, LookbackDays: 1, Query: "up", Step: "5m",
	})
	require.NoError(t, err)
	assert.Equal(t, "run-b", out.RunID)
	assert.Equal(t, 120, out.Analysis.Usage.InputTokens)
	assert.Equal(t, 340, out.Analysis.Usage.OutputTokens)
	assert.Equal(t, "No anomalies detected.", out.Analysis.Text())
	assert.InDelta(t, 120*3.0/1e6+340*15.0/1e6, out.CostUSD, 1e-12)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.RequestsTotal.WithLabelValues(apperr.Prometheus, metrics.StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.RequestsTotal.WithLabelValues(apperr.Anthropic, metrics.StatusOK)))
	assert.Equal(t, 340.0, testutil.ToFloat64(rec.TokensTotal.WithLabelValues("claude-sonnet-4-20250514", "output")))
}

func TestRunStatesInOrder(t *testing.T) {
	var promHits, aiHits int32
	pc, ac := newBackends(t, scenarioAMetrics, scenarioBAnalysis, &promHits, &aiHits, nil)

	var seen []State
	_, err := New(pc, ac, WithObserver(func(s State, _ *Outcome) { seen = append(seen, s) })).
		Run(context.Background(), Request{Model: ai.Claude3Haiku, LookbackDays: 2, Query: "up", Step: "5m"})
	require.NoError(t, err)
	assert.Equal(t, []State{Idle, RangeComputed, MetricsFetched, PromptBuilt, AnalysisComplete}, seen)
	assert.Equal(t, "prompt_built", PromptBuilt.String())
}

func TestRunStopsAtFirstError(t *testing.T) {
	var aiHits int32
	promSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	}))
	defer promSrv.Close()
	aiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&aiHits, 1)
	}))
	defer aiSrv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	rec := metrics.New()
	var last State
	out, err := New(prom.NewClient(promSrv.URL), ai.NewClient(aiSrv.URL, "sk"),
		WithLogger(zap.New(core)),
		WithMetrics(rec),
		WithObserver(func(s State, _ *Outcome) { last = s }),
	).Run(context.Background(), Request{Model: ai.ClaudeSonnet4, LookbackDays: 8, Query: "up", Step: "5m"})

	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, apperr.Backend, apperr.KindOf(err))
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 500, ae.StatusCode)
	assert.Equal(t, apperr.Prometheus, ae.Backend)

	assert.EqualValues(t, 0, aiHits)
	assert.Equal(t, RangeComputed, last)
	failed := logs.FilterMessage("metrics fetch failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.DebugLevel, failed[0].Level)
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.RequestsTotal.WithLabelValues(apperr.Prometheus, metrics.StatusError)))
}

func TestRunAnalysisDecodeError(t *testing.T) {
	var promHits, aiHits int32
	pc, ac := newBackends(t, scenarioAMetrics,
		`{"role":"assistant","model":"m","usage":{"input_tokens":1,"output_tokens":0},"content":[]}`,
		&promHits, &aiHits, nil)

	out, err := New(pc, ac).Run(context.Background(), Request{Model: ai.ClaudeSonnet4, LookbackDays: 8, Query: "up", Step: "5m"})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, apperr.Decode, apperr.KindOf(err))
}

func TestRunWarnsOnPrometheusWarnings(t *testing.T) {
	var promHits, aiHits int32
	body := `{"status":"success","warnings":["query hit series limit"],"data":{"resultType":"matrix","result":[]}}`
	pc, ac := newBackends(t, body, scenarioBAnalysis, &promHits, &aiHits, nil)

	core, logs := observer.New(zapcore.WarnLevel)
	_, err := New(pc, ac, WithLogger(zap.New(core)), WithRunID("r1")).
		Run(context.Background(), Request{Model: ai.ClaudeSonnet4, LookbackDays: 8, Query: "up", Step: "5m"})
	require.NoError(t, err)

	warned := logs.FilterMessage("prometheus warning").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "query hit series limit", warned[0].ContextMap()["warning"])
	assert.Equal(t, "r1", warned[0].ContextMap()["run_id"])
}

func TestRunRejectsBadRequestWithoutIO(t *testing.T) {
	var promHits, aiHits int32
	pc, ac := newBackends(t, scenarioAMetrics, scenarioBAnalysis, &promHits, &aiHits, nil)
	p := New(pc, ac)

	_, err := p.Run(context.Background(), Request{Model: ai.Model(0), LookbackDays: 8, Query: "up"})
	assert.Equal(t, apperr.Input, apperr.KindOf(err))
	_, err = p.Run(context.Background(), Request{Model: ai.ClaudeSonnet4, LookbackDays: 0, Query: "up"})
	assert.Equal(t, apperr.Input, apperr.KindOf(err))

	assert.EqualValues(t, 0, promHits)
	assert.EqualValues(t, 0, aiHits)
}
