package actuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnDirectMode(t *testing.T) {
	c, _ := newTestController(t)

	c.TurnRight(0.4)
	st := c.State()
	assert.Equal(t, 0.4, st.Steer)
	assert.Zero(t, st.SteerTarget)
	assert.True(t, st.Turning)

	c.TurnLeft(0.7)
	assert.Equal(t, -0.7, c.Snapshot().Steer)
}

func TestSlowReturnDefersRightTurn(t *testing.T) {
	c, _ := newTestController(t)
	c.SetSteer(0.5)
	c.SetSteerMode(SteerSlowReturn)

	c.TurnRight(0.3)
	st := c.State()
	require.Equal(t, 0.5, st.Steer, "turn toward centre must be deferred")
	require.Equal(t, 0.3, st.SteerTarget)

	for i := 0; i < 9; i++ {
		assert.Equal(t, c.cfg.SteerPeriod, c.steerTick())
	}
	st = c.State()
	assert.InDelta(t, 0.32, st.Steer, 1e-9)
	assert.Equal(t, SteerSlowReturn, st.SteerMode)

	c.steerTick()
	st = c.State()
	assert.Equal(t, 0.3, st.Steer)
	assert.Equal(t, SteerDirect, st.SteerMode)

	// Settled: further ticks leave steer alone.
	c.steerTick()
	assert.Equal(t, 0.3, c.Snapshot().Steer)
}

func TestSlowReturnDefersLeftTurn(t *testing.T) {
	c, _ := newTestController(t)
	c.SetSteer(-0.5)
	c.SetSteerMode(SteerSlowReturn)

	c.TurnLeft(0.3)
	require.Equal(t, -0.5, c.Snapshot().Steer)
	require.Equal(t, -0.3, c.State().SteerTarget)

	for i := 0; i < 10; i++ {
		c.steerTick()
	}
	st := c.State()
	assert.Equal(t, -0.3, st.Steer)
	assert.Equal(t, SteerDirect, st.SteerMode)
}

func TestSlowReturnImmediateWhenTurningFurther(t *testing.T) {
	c, _ := newTestController(t)
	c.SetSteer(0.2)
	c.SetSteerMode(SteerSlowReturn)

	c.TurnRight(0.6)
	st := c.State()
	assert.Equal(t, 0.6, st.Steer)
	assert.Equal(t, SteerDirect, st.SteerMode)
	assert.Zero(t, st.SteerTarget)

	c.SetSteer(-0.2)
	c.SetSteerMode(SteerSlowReturn)
	c.TurnLeft(0.6)
	assert.Equal(t, -0.6, c.Snapshot().Steer)
	assert.Equal(t, SteerDirect, c.SteerMode())
}

func TestSteerFastStepOnFarSide(t *testing.T) {
	c, _ := newTestController(t)
	c.SetSteer(-0.2)
	c.SetSteerMode(SteerSlowReturn)

	// Target further left than a steer that is already left of centre.
	c.TurnRight(-0.5)
	require.Equal(t, -0.5, c.State().SteerTarget)

	c.steerTick()
	assert.InDelta(t, -0.3, c.Snapshot().Steer, 1e-9)
	c.steerTick()
	assert.InDelta(t, -0.4, c.Snapshot().Steer, 1e-9)
	assert.Equal(t, SteerSlowReturn, c.SteerMode())
	c.steerTick()
	assert.Equal(t, -0.5, c.Snapshot().Steer)
	assert.Equal(t, SteerDirect, c.SteerMode())
}

func TestSteerNeverOvershootsTarget(t *testing.T) {
	c, _ := newTestController(t)
	c.SetSteer(0.95)
	c.SetSteerMode(SteerSlowReturn)
	c.TurnRight(0.111)

	for i := 0; i < 100; i++ {
		c.steerTick()
		assert.GreaterOrEqual(t, c.Snapshot().Steer, 0.111)
	}
	assert.Equal(t, 0.111, c.Snapshot().Steer)
}

func TestSteerIdleWithoutTarget(t *testing.T) {
	c, _ := newTestController(t)
	c.SetSteer(0.4)

	assert.Equal(t, c.cfg.SteerIdlePeriod, c.steerTick())
	assert.Equal(t, 0.4, c.Snapshot().Steer)
}

func TestSetSteerRouting(t *testing.T) {
	c, _ := newTestController(t)

	c.SetSteer(0.8)
	assert.Equal(t, 0.8, c.Snapshot().Steer)
	assert.False(t, c.Turning(), "direct writes are not turns")

	c.SetSteerMode(SteerSlowReturn)
	c.SetSteer(0.3)
	st := c.State()
	assert.Equal(t, 0.8, st.Steer)
	assert.Equal(t, 0.3, st.SteerTarget)
	assert.True(t, st.Turning)

	// Non-positive values go through the left turn with their magnitude.
	c.SetSteer(-0.1)
	st = c.State()
	assert.Equal(t, -0.1, st.Steer)
	assert.Equal(t, SteerDirect, st.SteerMode)
}

func TestParseSteerMode(t *testing.T) {
	for in, want := range map[string]SteerMode{
		"":            SteerDirect,
		"direct":      SteerDirect,
		"slow_return": SteerSlowReturn,
		"slow-return": SteerSlowReturn,
		"slow":        SteerSlowReturn,
	} {
		got, err := ParseSteerMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSteerMode("sideways")
	assert.Error(t, err)
	assert.Equal(t, "slow_return", SteerSlowReturn.String())
}
