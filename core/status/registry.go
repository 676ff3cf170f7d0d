package status

import (
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/hems/core/model"
)

// DefaultDegradedAfter is the number of consecutive failed dispatches after
// which an entry is flagged degraded.
const DefaultDegradedAfter = 3

// Entry captures the last attempted dispatch of a device and the one
// expected next.
type Entry struct {
	DeviceID   model.DeviceID `json:"device_id"`
	LastValue  *float64       `json:"last_value"`
	LastSentAt *time.Time     `json:"last_sent_at"`
	NextValue  float64        `json:"next_value"`
	NextSentAt time.Time      `json:"next_sent_at"`
	// Fallback is true once the schedule has run out of values.
	Fallback  bool   `json:"fallback"`
	Failures  int    `json:"consecutive_failures"`
	LastError string `json:"last_error,omitempty"`
	Degraded  bool   `json:"degraded"`
}

func (e Entry) clone() Entry {
	if e.LastValue != nil {
		v := *e.LastValue
		e.LastValue = &v
	}
	if e.LastSentAt != nil {
		t := *e.LastSentAt
		e.LastSentAt = &t
	}
	return e
}

// Dispatch is the payload of Registry.Record.
type Dispatch struct {
	LastValue  float64
	LastSentAt time.Time
	NextValue  float64
	NextSentAt time.Time
	Fallback   bool
}

// Registry holds one Entry per scheduled device. The scheduler is the only
// writer; readers get copies and never observe later writes.
type Registry struct {
	mu            sync.RWMutex
	data          map[model.DeviceID]Entry
	degradedAfter int
}

// NewRegistry returns an empty registry. degradedAfter <= 0 selects
// DefaultDegradedAfter.
func NewRegistry(degradedAfter int) *Registry {
	if degradedAfter <= 0 {
		degradedAfter = DefaultDegradedAfter
	}
	return &Registry{data: map[model.DeviceID]Entry{}, degradedAfter: degradedAfter}
}

// Record overwrites the dispatch fields of id, keeping its failure counters.
func (r *Registry) Record(id model.DeviceID, d Dispatch) {
	last := d.LastValue
	at := d.LastSentAt
	r.mu.Lock()
	e := r.data[id]
	e.DeviceID = id
	e.LastValue = &last
	e.LastSentAt = &at
	e.NextValue = d.NextValue
	e.NextSentAt = d.NextSentAt
	e.Fallback = d.Fallback
	r.data[id] = e
	r.mu.Unlock()
}

// MarkOutcome updates the failure counters of an existing entry. Outcomes for
// unknown ids are ignored so a late result cannot resurrect a cleared entry.
func (r *Registry) MarkOutcome(id model.DeviceID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.data[id]
	if !ok {
		return
	}
	if err == nil {
		e.Failures = 0
		e.LastError = ""
	} else {
		e.Failures++
		e.LastError = err.Error()
	}
	e.Degraded = e.Failures >= r.degradedAfter
	r.data[id] = e
}

// Remove deletes the entry of id.
func (r *Registry) Remove(id model.DeviceID) {
	r.mu.Lock()
	delete(r.data, id)
	r.mu.Unlock()
}

// Clear removes every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.data = map[model.DeviceID]Entry{}
	r.mu.Unlock()
}

// Get returns a copy of the entry of id.
func (r *Registry) Get(id model.DeviceID) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.data[id]
	return e.clone(), ok
}

// Snapshot returns a deep copy of every entry keyed by device id.
func (r *Registry) Snapshot() map[model.DeviceID]Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[model.DeviceID]Entry, len(r.data))
	for id, e := range r.data {
		out[id] = e.clone()
	}
	return out
}

// List returns the entries sorted by device id.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	res := make([]Entry, 0, len(r.data))
	for _, e := range r.data {
		res = append(res, e.clone())
	}
	r.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool { return res[i].DeviceID < res[j].DeviceID })
	return res
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
