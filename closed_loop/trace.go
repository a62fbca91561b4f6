package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"

	"actuation-core/actuation"
	"actuation-core/utils"
)

// TraceSample is one platform tick of a trace.
type TraceSample struct {
	T          float64
	Values     actuation.Values
	Speed      float64 // km/h
	Baseline   float64 // km/h
	Correction actuation.CruiseCorrection
}

// Trace is the recorded output of a scenario replay.
type Trace struct {
	Scenario string
	Samples  []TraceSample
}

// RunTrace replays scen against a live controller without a bus. Speed comes
// only from the scenario's speed_mps intents. One sample is taken per
// sample_ms, each preceded by a cruise correction, as the platform would.
func RunTrace(ctx context.Context, scen Scenario, ctrlCfg actuation.Config, maxSpeed float64, log *utils.Logger) (Trace, error) {
	if scen.Timing.DurationS <= 0 {
		return Trace{}, fmt.Errorf("trace needs a positive duration_s")
	}

	ctrl := actuation.New(ctrlCfg, log.With("actuation"), nil)
	intents := &intentApplier{ctrl: ctrl, ceiling: maxSpeed}
	if err := intents.SetSpeed(0); err != nil {
		return Trace{}, err
	}
	if err := ctrl.Start(ctx); err != nil {
		return Trace{}, err
	}
	defer ctrl.Close()

	period := time.Duration(scen.Timing.SampleMS) * time.Millisecond
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	player := newScenarioPlayer(&scen)
	trace := Trace{Scenario: scen.Meta.Name}
	start := time.Now()
	end := time.Duration(scen.Timing.DurationS * float64(time.Second))

	apply := func(t float64) {
		for _, ev := range player.Due(t) {
			if err := intents.Apply(ev.Intents); err != nil {
				log.Warn("Scenario event at t=%.3f rejected: %v", ev.T, err)
			}
		}
	}
	apply(0)

	for {
		select {
		case <-ctx.Done():
			return trace, ctx.Err()
		case now := <-ticker.C:
			elapsed := now.Sub(start)
			if elapsed > end {
				return trace, nil
			}
			t := elapsed.Seconds()
			apply(t)

			kind := ctrl.CorrectCruise()
			st := ctrl.State()
			trace.Samples = append(trace.Samples, TraceSample{
				T:          t,
				Values:     ctrl.Snapshot(),
				Speed:      st.CurrentSpeed,
				Baseline:   st.CruiseBaseline,
				Correction: kind,
			})
		}
	}
}

// Series returns the steer, throttle and brake columns.
func (tr Trace) Series() (steer, throttle, brake []float64) {
	for _, s := range tr.Samples {
		steer = append(steer, s.Values.Steer)
		throttle = append(throttle, s.Values.Throttle)
		brake = append(brake, s.Values.Brake)
	}
	return steer, throttle, brake
}

// Render writes one ASCII plot per actuator and a table of cruise events.
func (tr Trace) Render(w io.Writer, width int) error {
	if len(tr.Samples) == 0 {
		_, err := fmt.Fprintln(w, "no samples recorded")
		return err
	}

	steer, throttle, brake := tr.Series()
	for _, p := range []struct {
		caption string
		data    []float64
	}{
		{"steer", steer},
		{"throttle", throttle},
		{"brake", brake},
	} {
		graph := asciigraph.Plot(p.data,
			asciigraph.Height(8),
			asciigraph.Width(width),
			asciigraph.Caption(fmt.Sprintf("%s (%s)", p.caption, tr.Scenario)),
		)
		if _, err := fmt.Fprintf(w, "%s\n\n", graph); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "T\tCORRECTION\tSPEED\tBASELINE\tTHROTTLE\tBRAKE")
	for _, s := range tr.Samples {
		if s.Correction == actuation.CruiseNone {
			continue
		}
		fmt.Fprintf(tw, "%.2f\t%s\t%.1f\t%.1f\t%.3f\t%.3f\n",
			s.T, s.Correction, s.Speed, s.Baseline, s.Values.Throttle, s.Values.Brake)
	}
	return tw.Flush()
}
