package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actuation-core/actuation"
	"actuation-core/utils"
)

func TestRunTraceRecordsOutputs(t *testing.T) {
	scen, err := ParseScenario([]byte(`
meta: {name: trace}
timing: {duration_s: 0.3, sample_ms: 20}
events:
  - t: 0
    speed_mps: 5
    accelerate: 0.3
  - t: 0.1
    turn_right: 0.4
`))
	require.NoError(t, err)

	cfg := actuation.Config{
		ThrottlePeriod:  2 * time.Millisecond,
		SteerPeriod:     2 * time.Millisecond,
		SteerIdlePeriod: 2 * time.Millisecond,
		BrakePeriod:     2 * time.Millisecond,
	}
	tr, err := RunTrace(context.Background(), scen, cfg, 50, utils.NewNopLogger())
	require.NoError(t, err)
	require.NotEmpty(t, tr.Samples)

	last := tr.Samples[len(tr.Samples)-1]
	assert.Equal(t, 0.3, last.Values.Throttle)
	assert.Equal(t, 0.4, last.Values.Steer)
	assert.InDelta(t, 18, last.Speed, 1e-9)

	steer, throttle, brake := tr.Series()
	assert.Len(t, steer, len(tr.Samples))
	assert.Len(t, throttle, len(tr.Samples))
	assert.Len(t, brake, len(tr.Samples))

	var buf bytes.Buffer
	require.NoError(t, tr.Render(&buf, 40))
	assert.Contains(t, buf.String(), "throttle (trace)")
	assert.Contains(t, buf.String(), "CORRECTION")
}

func TestRunTraceNeedsDuration(t *testing.T) {
	_, err := RunTrace(context.Background(), Scenario{}, actuation.Config{}, 50, utils.NewNopLogger())
	assert.Error(t, err)
}

func TestRenderEmptyTrace(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Trace{}.Render(&buf, 40))
	assert.Contains(t, buf.String(), "no samples")
}
