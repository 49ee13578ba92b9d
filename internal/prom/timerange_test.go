package prom

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeFromLookbackSpansWholeDays(t *testing.T) {
	for days := 1; days <= 365; days++ {
		before := time.Now().Unix()
		r := RangeFromLookback(days, time.Now())
		after := time.Now().Unix()

		if r.End-r.Start != int64(days)*86400 {
			t.Fatalf("days=%d: span %d", days, r.End-r.Start)
		}
		if r.End < before || r.End > after {
			t.Fatalf("days=%d: end %d outside [%d, %d]", days, r.End, before, after)
		}
		if r.Start >= r.End {
			t.Fatalf("days=%d: start %d not before end %d", days, r.Start, r.End)
		}
	}
}

func TestRangeFromLookbackAnchorsAtNow(t *testing.T) {
	now := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	r := RangeFromLookback(8, now)

	assert.Equal(t, int64(1700000000), r.End)
	assert.Equal(t, int64(1700000000-8*86400), r.Start)
	assert.Equal(t, 8*24*time.Hour, r.Duration())
	assert.True(t, now.Equal(r.EndTime()))
}

func TestSampleJSON(t *testing.T) {
	var s Sample
	require.NoError(t, json.Unmarshal([]byte(`[1700000000.5,"0.42"]`), &s))
	assert.Equal(t, Sample{Timestamp: 1700000000.5, Value: "0.42"}, s)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `[1700000000.5,"0.42"]`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"t":1}`), &s))
}

func TestSampleFloat(t *testing.T) {
	v, err := Sample{Value: "0.25"}.Float()
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	v, err = Sample{Value: "NaN"}.Float()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	_, err = Sample{Value: "n/a"}.Float()
	assert.Error(t, err)
}
