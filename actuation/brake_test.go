package actuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrakeIntensity(t *testing.T) {
	tests := []struct {
		name          string
		speed, target float64
		want          float64
	}{
		{"inactive target", 50, 0, 0},
		{"under target", 10, 20, 0},
		{"at target", 20, 20, 0},
		{"diff over 20", 50, 20, 0.5},
		{"diff exactly 20", 40, 20, 0.25},
		{"diff over 15", 37, 20, 0.25},
		{"diff over 10", 32, 20, 0.15},
		{"diff over 5", 28, 20, 0.08},
		{"diff under 5", 24, 20, 0.02},
		{"low target scaled", 40, 10, 0.75},
		{"low target small diff", 16, 10, 0.09},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BrakeIntensity(tt.speed, tt.target), 1e-9)
		})
	}
}

func TestBrakeIntensityNonDecreasingInDiff(t *testing.T) {
	for _, target := range []float64{10, 20, 60} {
		prev := 0.0
		for speed := target; speed < target+60; speed += 0.25 {
			v := BrakeIntensity(speed, target)
			require.GreaterOrEqual(t, v, prev, "target=%v speed=%v", target, speed)
			prev = v
		}
	}
}

func TestBrakeTickAppliesGovernor(t *testing.T) {
	c, _ := newTestController(t)
	c.Accelerate(0.6)
	c.throttleTick()
	require.NoError(t, c.SetForwardSpeed(10)) // 36 km/h
	c.SetBrakeTarget(20)

	assert.Equal(t, c.cfg.BrakePeriod, c.brakeTick())
	st := c.State()
	assert.Equal(t, 0.25, st.BrakeOutput)
	assert.Zero(t, st.Throttle)
	assert.Zero(t, st.ThrottleTarget)
	assert.Equal(t, 20.0, st.BrakeTarget, "target survives the brake application")
}

func TestBrakeTickIdle(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.SetForwardSpeed(10))
	c.Accelerate(0.5)
	c.throttleTick()

	c.brakeTick()
	assert.Zero(t, c.Snapshot().Brake)

	c.SetBrakeTarget(50)
	c.brakeTick()
	v := c.Snapshot()
	assert.Zero(t, v.Brake)
	assert.Equal(t, 0.075, v.Throttle)
}

func TestResetBrakeOutputKeepsTarget(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.SetForwardSpeed(10))
	c.SetBrakeTarget(10)
	c.brakeTick()
	require.NotZero(t, c.Snapshot().Brake)

	c.ResetBrakeOutput()
	assert.Zero(t, c.Snapshot().Brake)
	assert.Equal(t, 10.0, c.BrakeTarget())

	// Still over target: the governor brakes again on its next tick.
	c.brakeTick()
	assert.NotZero(t, c.Snapshot().Brake)
}
