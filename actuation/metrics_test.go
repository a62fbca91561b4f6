package actuation

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordControllerActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := New(Config{Now: clk.Now}, nil, m)

	require.NoError(t, c.SetSpeedEnvelope(5, 100))
	c.PrimeCruise()
	require.NoError(t, c.SetForwardSpeed(kph(30)))
	require.Equal(t, CruiseThrottle, c.CorrectCruise())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cruiseCorrections.WithLabelValues("throttle")))

	c.SetBrakeTarget(10)
	c.brakeTick()
	c.brakeTick()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.governorBrakes))

	m.ObserveState(c.State())
	assert.InDelta(t, 0.375, testutil.ToFloat64(m.brake), 1e-9)
	assert.Zero(t, testutil.ToFloat64(m.throttle))
	assert.InDelta(t, 30, testutil.ToFloat64(m.currentSpeed), 1e-9)

	m.FrameSent()
	m.InvalidSpeed()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidSpeeds))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveState(ActuatorState{})
		m.FrameSent()
		m.InvalidSpeed()
		m.governorBrake()
		m.cruiseCorrection(CruiseBrake)
	})
}
