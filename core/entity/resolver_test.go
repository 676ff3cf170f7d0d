package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hems/core/model"
)

func TestResolve_MarkerPath(t *testing.T) {
	r := NewResolver()
	res, err := r.Resolve("light.foo_electricitygrid_light.foo_s1")
	require.NoError(t, err)
	assert.Equal(t, model.DeviceID("light.foo"), res.ID)
	assert.Equal(t, PathMarker, res.Path)
	assert.False(t, res.Ambiguous())
}

func TestResolve_MarkerPathLongName(t *testing.T) {
	r := NewResolver()
	name := "light.led_strips_4_8w_m_rgb_827_865_1m_9610358_electricitygrid_light.led_strips_4_8w_m_rgb_827_865_1m_9610358_s1"
	res, err := r.Resolve(name)
	require.NoError(t, err)
	assert.Equal(t, model.DeviceID("light.led_strips_4_8w_m_rgb_827_865_1m_9610358"), res.ID)
}

func TestResolve_RepeatPath(t *testing.T) {
	r := NewResolver()
	res, err := r.Resolve("switch.bar_switch.bar_s2")
	require.NoError(t, err)
	assert.Equal(t, model.DeviceID("switch.bar"), res.ID)
	assert.Equal(t, PathRepeat, res.Path)
}

func TestResolve_RepeatPathUnderscoreObject(t *testing.T) {
	r := NewResolver()
	res, err := r.Resolve("climate.living_room_heater_climate.living_room_heater_s1")
	require.NoError(t, err)
	assert.Equal(t, model.DeviceID("climate.living_room_heater"), res.ID)
}

func TestResolve_DomainFiltering(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve("sensor.temp_electricitygrid_sensor.temp_s1")
	assert.ErrorIs(t, err, ErrUnsupportedDomain)
	_, err = r.Resolve("sensor.temp_sensor.temp_s1")
	assert.ErrorIs(t, err, ErrUnsupportedDomain)
}

func TestResolve_NoDot(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve("plainstring")
	assert.ErrorIs(t, err, ErrNoDomain)
	_, err = r.Resolve("")
	assert.ErrorIs(t, err, ErrNoDomain)
}

func TestResolve_AmbiguousLenient(t *testing.T) {
	r := NewResolver()
	res, err := r.Resolve("fan.attic_s1")
	require.NoError(t, err)
	assert.Equal(t, model.DeviceID("fan.attic_s1"), res.ID)
	assert.True(t, res.Ambiguous())
}

func TestResolve_AmbiguousStrict(t *testing.T) {
	r := NewResolver(WithStrict(true))
	_, err := r.Resolve("fan.attic_s1")
	if !errors.Is(err, ErrAmbiguousName) {
		t.Fatalf("expected ErrAmbiguousName, got %v", err)
	}
	// unambiguous names are unaffected by strict mode
	res, err := r.Resolve("fan.attic_fan.attic_s1")
	require.NoError(t, err)
	assert.Equal(t, model.DeviceID("fan.attic"), res.ID)
}

func TestResolve_CustomDomains(t *testing.T) {
	r := NewResolver(WithDomains("climate"))
	_, err := r.Resolve("light.foo_electricitygrid_light.foo_s1")
	assert.ErrorIs(t, err, ErrUnsupportedDomain)
	res, err := r.Resolve("climate.a_electricitygrid_x")
	require.NoError(t, err)
	assert.Equal(t, model.DeviceID("climate.a"), res.ID)
}

func TestResolve_Deterministic(t *testing.T) {
	r := NewResolver()
	names := []string{
		"light.foo_electricitygrid_light.foo_s1",
		"switch.bar_switch.bar_s2",
		"sensor.temp_electricitygrid_sensor.temp_s1",
		"plainstring",
		"cover.blind_s3",
		"_electricitygrid.x",
	}
	for _, n := range names {
		a, errA := r.Resolve(n)
		b, errB := r.Resolve(n)
		if a != b || (errA == nil) != (errB == nil) {
			t.Fatalf("resolve(%q) not deterministic: %v/%v vs %v/%v", n, a, errA, b, errB)
		}
	}
}
