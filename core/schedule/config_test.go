package schedule

import (
	"testing"
	"time"

	"github.com/kilianp07/hems/core/model"
)

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if c.Interval() != time.Hour {
		t.Fatalf("expected one hour interval, got %s", c.Interval())
	}
	if c.Timeout() != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %s", c.Timeout())
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []Config{
		{TickIntervalSeconds: -1, DispatchTimeoutSeconds: 1},
		{TickIntervalSeconds: 60, DispatchTimeoutSeconds: 0},
		{TickIntervalSeconds: 60, DispatchTimeoutSeconds: 60},
		{TickIntervalSeconds: 60, DispatchTimeoutSeconds: 1, MaxParallelDispatch: -1},
	}
	for i, c := range cases {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestConfigDomainList(t *testing.T) {
	c := Config{Domains: []string{"switch", "water_heater"}}
	got := c.DomainList()
	if len(got) != 2 || got[1] != model.Domain("water_heater") {
		t.Fatalf("unexpected domains %v", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{4, -2, 7, 3})
	if s.Min != -2 || s.Max != 7 || s.Mean != 3 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if Summarize(nil) != (Summary{}) {
		t.Fatalf("expected zero summary")
	}
}
