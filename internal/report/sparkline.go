package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/kubilitics/promits/internal/prom"
)

const defaultGraphWidth = 60

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline scales values onto eight block heights between their min and
// max. Series longer than width keep every len/width-th point.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}
	if width <= 0 {
		width = defaultGraphWidth
	}
	lo, hi := bounds(values)
	span := hi - lo
	if span == 0 {
		span = 1
	}
	stride := max(len(values)/width, 1)
	top := len(sparkBlocks) - 1
	out := make([]rune, 0, width)
	for i := 0; i < len(values) && len(out) < width; i += stride {
		level := int((values[i] - lo) / span * float64(top))
		out = append(out, sparkBlocks[min(max(level, 0), top)])
	}
	return string(out)
}

// Graph writes one sparkline per series with its label set and range.
// Samples whose value does not parse (NaN, +Inf) are skipped.
func Graph(w io.Writer, result prom.QueryResult, width int) error {
	if len(result.Result) == 0 {
		_, err := fmt.Fprintln(w, "(no series)")
		return err
	}
	for _, s := range result.Result {
		values := make([]float64, 0, len(s.Values))
		for _, sample := range s.Values {
			v, err := sample.Float()
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values = append(values, v)
		}
		line := Sparkline(values, width)
		if line == "" {
			line = "(no samples)"
		}
		lo, hi := bounds(values)
		if _, err := fmt.Fprintf(w, "%s\n  %s  min=%.4g max=%.4g n=%d\n", labels(s.Metric), line, lo, hi, len(values)); err != nil {
			return err
		}
	}
	return nil
}

func bounds(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func labels(m map[string]string) string {
	if len(m) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, m[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
