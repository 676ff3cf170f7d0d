package schedule

import (
	"time"

	"github.com/kilianp07/hems/core/model"
)

type schedule struct {
	id       model.DeviceID
	values   []float64
	cursor   int
	fallback float64
	epoch    uint64
	timer    Timer
	token    string

	installedAt time.Time
	// nextAt is the planned time of the next tick. Re-arming aims at it
	// rather than at now+interval so slow dispatches do not accumulate drift.
	nextAt time.Time
}

func newSchedule(id model.DeviceID, values []float64, epoch uint64, token string, now time.Time) *schedule {
	s := &schedule{
		id:          id,
		values:      append([]float64(nil), values...),
		epoch:       epoch,
		token:       token,
		installedAt: now,
	}
	if n := len(s.values); n > 0 {
		s.fallback = s.values[n-1]
	}
	return s
}

// at returns the value dispatched at cursor i and whether it is the fallback.
func (s *schedule) at(i int) (float64, bool) {
	if i < len(s.values) {
		return s.values[i], false
	}
	return s.fallback, true
}

func (s *schedule) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
