package schedule

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/hems/core/model"
)

// Summary describes the value range of a plan.
type Summary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Plan is a read-only view of an installed schedule.
type Plan struct {
	DeviceID    model.DeviceID `json:"device_id"`
	Values      []float64      `json:"values"`
	Cursor      int            `json:"cursor"`
	Fallback    float64        `json:"fallback"`
	InFallback  bool           `json:"in_fallback"`
	InstalledAt time.Time      `json:"installed_at"`
	NextAt      time.Time      `json:"next_at"`
	Summary     Summary        `json:"summary"`
}

// Remaining returns the values not yet dispatched.
func (p Plan) Remaining() []float64 {
	if p.Cursor+1 >= len(p.Values) {
		return nil
	}
	return p.Values[p.Cursor+1:]
}

// Summarize computes the range of values. An empty slice yields zeros.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	return Summary{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: stat.Mean(values, nil),
	}
}

func (s *schedule) plan() Plan {
	return Plan{
		DeviceID:    s.id,
		Values:      append([]float64(nil), s.values...),
		Cursor:      s.cursor,
		Fallback:    s.fallback,
		InFallback:  s.cursor >= len(s.values),
		InstalledAt: s.installedAt,
		NextAt:      s.nextAt,
		Summary:     Summarize(s.values),
	}
}

func sortPlans(p []Plan) {
	sort.Slice(p, func(i, j int) bool { return p[i].DeviceID < p[j].DeviceID })
}
