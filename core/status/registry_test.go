package status

import (
	"errors"
	"testing"
	"time"
)

func TestRegistry_RecordAndSnapshot(t *testing.T) {
	r := NewRegistry(0)
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	r.Record("light.a", Dispatch{LastValue: 1, LastSentAt: now, NextValue: 2, NextSentAt: now.Add(time.Hour)})
	snap := r.Snapshot()
	e, ok := snap["light.a"]
	if !ok {
		t.Fatalf("missing entry")
	}
	if *e.LastValue != 1 || e.NextValue != 2 || !e.NextSentAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("bad entry %#v", e)
	}
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	r := NewRegistry(0)
	r.Record("light.a", Dispatch{LastValue: 1, LastSentAt: time.Now()})
	snap := r.Snapshot()
	e := snap["light.a"]
	*e.LastValue = 99
	delete(snap, "light.a")
	got, ok := r.Get("light.a")
	if !ok || *got.LastValue != 1 {
		t.Fatalf("internal state mutated through snapshot: %#v", got)
	}
}

func TestRegistry_MarkOutcomeDegraded(t *testing.T) {
	r := NewRegistry(2)
	r.Record("switch.a", Dispatch{LastValue: 1, LastSentAt: time.Now()})
	r.MarkOutcome("switch.a", errors.New("hub down"))
	e, _ := r.Get("switch.a")
	if e.Degraded || e.Failures != 1 || e.LastError != "hub down" {
		t.Fatalf("unexpected entry after one failure: %#v", e)
	}
	r.MarkOutcome("switch.a", errors.New("hub down"))
	e, _ = r.Get("switch.a")
	if !e.Degraded {
		t.Fatalf("expected degraded after two failures")
	}
	r.MarkOutcome("switch.a", nil)
	e, _ = r.Get("switch.a")
	if e.Degraded || e.Failures != 0 || e.LastError != "" {
		t.Fatalf("success should reset failures: %#v", e)
	}
}

func TestRegistry_MarkOutcomeUnknownIgnored(t *testing.T) {
	r := NewRegistry(0)
	r.MarkOutcome("light.ghost", errors.New("x"))
	if r.Len() != 0 {
		t.Fatalf("outcome created an entry")
	}
}

func TestRegistry_ListSortedAndClear(t *testing.T) {
	r := NewRegistry(0)
	r.Record("switch.b", Dispatch{})
	r.Record("light.a", Dispatch{})
	out := r.List()
	if len(out) != 2 || out[0].DeviceID != "light.a" {
		t.Fatalf("list not sorted: %#v", out)
	}
	r.Clear()
	r.Clear()
	if r.Len() != 0 {
		t.Fatalf("clear failed")
	}
}
