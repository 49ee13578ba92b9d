// Package metrics records what a promits run did, in Prometheus text format,
// so node_exporter's textfile collector can scrape it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Recorder holds one run's collectors on a private registry.
type Recorder struct {
	reg *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TokensTotal     *prometheus.CounterVec
	CostUSD         *prometheus.CounterVec
	SamplesFetched  prometheus.Gauge
	SeriesFetched   prometheus.Gauge
	LastRunSuccess  prometheus.Gauge
	LastRunSeconds  prometheus.Gauge
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promits_backend_requests_total",
				Help: "Requests sent to each backend",
			},
			[]string{"backend", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "promits_backend_request_duration_seconds",
				Help:    "Backend request duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"backend"},
		),
		TokensTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promits_llm_tokens_total",
				Help: "Tokens reported by the analysis provider",
			},
			[]string{"model", "type"}, // type: input/output
		),
		CostUSD: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promits_llm_cost_usd_total",
				Help: "Estimated analysis cost in USD",
			},
			[]string{"model"},
		),
		SamplesFetched: f.NewGauge(prometheus.GaugeOpts{
			Name: "promits_samples_fetched",
			Help: "Samples returned by the last range query",
		}),
		SeriesFetched: f.NewGauge(prometheus.GaugeOpts{
			Name: "promits_series_fetched",
			Help: "Series returned by the last range query",
		}),
		LastRunSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "promits_last_run_success",
			Help: "1 if the last run completed, 0 otherwise",
		}),
		LastRunSeconds: f.NewGauge(prometheus.GaugeOpts{
			Name: "promits_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

// ObserveRequest counts a backend call and its latency. A nil Recorder is a no-op.
func (r *Recorder) ObserveRequest(backend string, d time.Duration, err error) {
	if r == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	r.RequestsTotal.WithLabelValues(backend, status).Inc()
	r.RequestDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func (r *Recorder) ObserveFetch(series, samples int) {
	if r == nil {
		return
	}
	r.SeriesFetched.Set(float64(series))
	r.SamplesFetched.Set(float64(samples))
}

func (r *Recorder) ObserveUsage(model string, input, output int, costUSD float64) {
	if r == nil {
		return
	}
	r.TokensTotal.WithLabelValues(model, "input").Add(float64(max(input, 0)))
	r.TokensTotal.WithLabelValues(model, "output").Add(float64(max(output, 0)))
	if costUSD > 0 {
		r.CostUSD.WithLabelValues(model).Add(costUSD)
	}
}

// Finish stamps the run result.
func (r *Recorder) Finish(at time.Time, err error) {
	if r == nil {
		return
	}
	if err == nil {
		r.LastRunSuccess.Set(1)
	} else {
		r.LastRunSuccess.Set(0)
	}
	r.LastRunSeconds.Set(float64(at.Unix()))
}

// WriteTextfile atomically writes every collector to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
