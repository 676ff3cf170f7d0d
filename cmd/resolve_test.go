package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestResolveCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"resolve", "light.kitchen_electricitygrid_s1", "nodot", "climate.heater_node_climate.heater_x"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", out.String())
	}
	if !strings.Contains(lines[0], "\tlight.kitchen\tmarker") {
		t.Fatalf("unexpected marker line %q", lines[0])
	}
	if !strings.Contains(lines[1], "rejected") {
		t.Fatalf("expected rejection, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "\tclimate.heater_node\trepeat") {
		t.Fatalf("unexpected repeat line %q", lines[2])
	}
}
