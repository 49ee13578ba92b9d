package prom

import "time"

const secondsPerDay = 24 * 60 * 60

// TimeRange is a closed [Start, End] window in Unix seconds.
type TimeRange struct {
	Start int64 `json:"start" yaml:"start"`
	End   int64 `json:"end" yaml:"end"`
}

// RangeFromLookback returns the window ending at now and starting days
// earlier. It does not validate days; callers clamp it first.
func RangeFromLookback(days int, now time.Time) TimeRange {
	end := now.Unix()
	return TimeRange{
		Start: end - int64(days)*secondsPerDay,
		End:   end,
	}
}

// Duration is the length of the window.
func (r TimeRange) Duration() time.Duration {
	return time.Duration(r.End-r.Start) * time.Second
}

func (r TimeRange) StartTime() time.Time { return time.Unix(r.Start, 0).UTC() }

func (r TimeRange) EndTime() time.Time { return time.Unix(r.End, 0).UTC() }
