// Package entity maps the optimizer's control-signal names back to the
// device ids they were generated from.
//
// Names look like
//
//	light.led_strip_electricitygrid_light.led_strip_s1
//	switch.heater_switch.heater_s2
//
// The optimizer does not expose the original id, so the resolver relies on
// two heuristics: everything before the grid node marker, or everything
// before the second occurrence of the domain token. Names that match neither
// are reported as ambiguous.
package entity
