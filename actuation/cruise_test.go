package actuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kph(v float64) float64 { return v / kphPerMPS }

func TestSeedThrottleBands(t *testing.T) {
	for speed, want := range map[float64]float64{
		0:  0.5,
		5:  0.5,
		12: 0.5,
		16: 0.5,
		18: 0.55,
		22: 0.55,
		30: 0.6,
		35: 0.6,
		40: 0.7,
	} {
		assert.Equal(t, want, seedThrottle(speed), "speed=%v", speed)
	}
}

func TestPrimeCruiseAtCurrentSpeed(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.SetSpeedEnvelope(5, 25))

	c.PrimeCruise()
	st := c.State()
	assert.InDelta(t, 18, st.CruiseBaseline, 1e-9)
	assert.Equal(t, 0.55, st.Throttle)
}

func TestPrimeCruiseOverride(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.SetSpeedEnvelope(5, 25))

	c.PrimeCruiseAt(25)
	st := c.State()
	assert.Equal(t, 25.0, st.CruiseBaseline)
	assert.Equal(t, 0.6, st.Throttle)
}

func TestPrimeCruiseClampsToCeiling(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.SetSpeedEnvelope(5, 25))

	c.PrimeCruiseAt(40)
	assert.Equal(t, 25.0, c.CruiseBaseline())
}

func TestPrimeCruiseGating(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.SetSpeedEnvelope(0.1, 100))
	c.PrimeCruise()
	assert.Zero(t, c.CruiseBaseline(), "stationary vehicle must not prime")

	require.NoError(t, c.SetSpeedEnvelope(5, 100))
	c.PrimeCruise()
	first := c.CruiseBaseline()
	require.NotZero(t, first)

	require.NoError(t, c.SetForwardSpeed(10))
	c.PrimeCruise()
	assert.Equal(t, first, c.CruiseBaseline(), "one prime per motion episode")
}

func TestCorrectCruiseInactive(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.SetForwardSpeed(20))
	assert.Equal(t, CruiseNone, c.CorrectCruise())
}

func TestCorrectCruiseFastBaseline(t *testing.T) {
	c, clk := newTestController(t)
	require.NoError(t, c.SetSpeedEnvelope(5, 100))
	c.PrimeCruise() // 18 km/h, throttle 0.55

	require.NoError(t, c.SetForwardSpeed(kph(30)))
	require.Equal(t, CruiseThrottle, c.CorrectCruise())
	st := c.State()
	assert.InDelta(t, 0.48, st.Throttle, 1e-9)
	assert.Equal(t, cruiseLongInterval, st.NextCorrectionInterval)
	assert.Equal(t, clk.Now(), st.MaintainTimestamp)

	assert.Equal(t, CruiseNone, c.CorrectCruise(), "rate limited")
	clk.Advance(3 * time.Second)
	assert.Equal(t, CruiseNone, c.CorrectCruise(), "interval must be exceeded")
	clk.Advance(time.Millisecond)

	require.NoError(t, c.SetForwardSpeed(kph(25)))
	require.Equal(t, CruiseThrottle, c.CorrectCruise())
	assert.InDelta(t, 0.44, c.Snapshot().Throttle, 1e-9)
}

func TestCorrectCruiseSlowBaseline(t *testing.T) {
	c, clk := newTestController(t)
	require.NoError(t, c.SetSpeedEnvelope(3, 100))
	c.PrimeCruise() // 10.8 km/h, throttle 0.5

	require.NoError(t, c.SetForwardSpeed(kph(4)))
	require.Equal(t, CruiseThrottle, c.CorrectCruise())
	st := c.State()
	assert.InDelta(t, 0.54, st.Throttle, 1e-9)
	assert.Equal(t, cruiseShortInterval, st.NextCorrectionInterval)

	clk.Advance(1500 * time.Millisecond)
	require.NoError(t, c.SetForwardSpeed(kph(24)))
	require.Equal(t, CruiseThrottle, c.CorrectCruise())
	assert.InDelta(t, 0.49, c.Snapshot().Throttle, 1e-9)
}

func TestCorrectCruiseDeadband(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.SetSpeedEnvelope(5, 100))
	c.PrimeCruise()

	require.NoError(t, c.SetForwardSpeed(kph(22)))
	assert.Equal(t, CruiseNone, c.CorrectCruise())
	st := c.State()
	assert.True(t, st.MaintainTimestamp.IsZero())
	assert.Equal(t, 0.55, st.Throttle)
}

func TestCorrectCruiseHardBrake(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.SetSpeedEnvelope(5, 100))
	c.PrimeCruise()

	require.NoError(t, c.SetForwardSpeed(kph(45)))
	require.Equal(t, CruiseBrake, c.CorrectCruise())
	st := c.State()
	assert.Equal(t, cruiseHardBrake, st.BrakeOutput)
	assert.Zero(t, st.Throttle)
	assert.Zero(t, st.CruiseBaseline)
	assert.Equal(t, cruiseShortInterval, st.NextCorrectionInterval)

	assert.Equal(t, CruiseNone, c.CorrectCruise())
}

func TestCruiseCorrectionString(t *testing.T) {
	assert.Equal(t, "none", CruiseNone.String())
	assert.Equal(t, "throttle", CruiseThrottle.String())
	assert.Equal(t, "brake", CruiseBrake.String())
}
