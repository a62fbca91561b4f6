package main

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"actuation-core/actuation"
)

// Scenario is a timeline of driving intents replayed against the controller.
type Scenario struct {
	Meta   ScenarioMeta    `yaml:"meta"`
	Timing ScenarioTiming  `yaml:"timing"`
	Events []ScenarioEvent `yaml:"events"`
}

// ScenarioMeta contains scenario metadata
type ScenarioMeta struct {
	Name        string `yaml:"name"`
	Version     int    `yaml:"version"`
	Description string `yaml:"description"`
}

// ScenarioTiming bounds the replay. A zero duration runs until canceled.
type ScenarioTiming struct {
	DurationS float64 `yaml:"duration_s"`
	SampleMS  int     `yaml:"sample_ms"` // trace sampling period
}

// ScenarioEvent fires its intents once, at T seconds into the run.
type ScenarioEvent struct {
	T       float64 `yaml:"t"`
	Comment string  `yaml:"comment,omitempty"`
	Intents Intents `yaml:",inline"`
}

// Intents mirrors the controller's setter surface. Unset fields are skipped.
type Intents struct {
	SteerMode   *string  `yaml:"steer_mode,omitempty"`
	SpeedMPS    *float64 `yaml:"speed_mps,omitempty"`
	MaxSpeed    *float64 `yaml:"max_speed,omitempty"`
	TurnRight   *float64 `yaml:"turn_right,omitempty"`
	TurnLeft    *float64 `yaml:"turn_left,omitempty"`
	Steer       *float64 `yaml:"steer,omitempty"`
	Accelerate  *float64 `yaml:"accelerate,omitempty"`
	Brake       *float64 `yaml:"brake,omitempty"`
	BrakeTarget *float64 `yaml:"brake_target,omitempty"`
	ResetBrake  bool     `yaml:"reset_brake,omitempty"`
	Cruise      bool     `yaml:"cruise,omitempty"`
	CruiseMax   *float64 `yaml:"cruise_max,omitempty"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario. Events are sorted by time.
func ParseScenario(data []byte) (Scenario, error) {
	var scen Scenario
	if err := yaml.Unmarshal(data, &scen); err != nil {
		return Scenario{}, fmt.Errorf("unmarshal: %w", err)
	}

	if scen.Timing.DurationS < 0 {
		return Scenario{}, fmt.Errorf("invalid duration_s: %f", scen.Timing.DurationS)
	}
	if scen.Timing.SampleMS < 0 {
		return Scenario{}, fmt.Errorf("invalid sample_ms: %d", scen.Timing.SampleMS)
	}
	if scen.Timing.SampleMS == 0 {
		scen.Timing.SampleMS = 100
	}

	for i, ev := range scen.Events {
		if ev.T < 0 {
			return Scenario{}, fmt.Errorf("event %d: negative t %f", i, ev.T)
		}
		if scen.Timing.DurationS > 0 && ev.T > scen.Timing.DurationS {
			return Scenario{}, fmt.Errorf("event %d: t %.3f beyond duration_s %.3f", i, ev.T, scen.Timing.DurationS)
		}
		if ev.Intents.SteerMode != nil {
			if _, err := actuation.ParseSteerMode(*ev.Intents.SteerMode); err != nil {
				return Scenario{}, fmt.Errorf("event %d: %w", i, err)
			}
		}
		if ev.Intents.SpeedMPS != nil && *ev.Intents.SpeedMPS < 0 {
			return Scenario{}, fmt.Errorf("event %d: %w: %v", i, actuation.ErrInvalidSpeed, *ev.Intents.SpeedMPS)
		}
	}
	sort.SliceStable(scen.Events, func(i, j int) bool { return scen.Events[i].T < scen.Events[j].T })

	return scen, nil
}

// scenarioPlayer hands out events as the replay clock passes them.
type scenarioPlayer struct {
	events []ScenarioEvent
	next   int
}

func newScenarioPlayer(scen *Scenario) *scenarioPlayer {
	return &scenarioPlayer{events: scen.Events}
}

// Due returns the events with T <= t not yet returned.
func (p *scenarioPlayer) Due(t float64) []ScenarioEvent {
	start := p.next
	for p.next < len(p.events) && p.events[p.next].T <= t {
		p.next++
	}
	return p.events[start:p.next]
}

// intentApplier feeds scenario intents into a controller and tracks the
// speed ceiling, which the controller only accepts together with a speed.
type intentApplier struct {
	ctrl    *actuation.Controller
	ceiling float64
}

// SetSpeed reports a forward speed (m/s) with the current ceiling.
func (a *intentApplier) SetSpeed(mps float64) error {
	return a.ctrl.SetSpeedEnvelope(mps, a.ceiling)
}

// Apply issues the intents in a fixed order: mode and speed first so the
// steer and cruise intents that follow see them.
func (a *intentApplier) Apply(in Intents) error {
	if in.SteerMode != nil {
		mode, err := actuation.ParseSteerMode(*in.SteerMode)
		if err != nil {
			return err
		}
		a.ctrl.SetSteerMode(mode)
	}
	if in.MaxSpeed != nil {
		a.ceiling = *in.MaxSpeed
		if err := a.SetSpeed(a.ctrl.State().ForwardSpeed); err != nil {
			return err
		}
	}
	if in.SpeedMPS != nil {
		if err := a.SetSpeed(*in.SpeedMPS); err != nil {
			return err
		}
	}

	if in.TurnRight != nil {
		a.ctrl.TurnRight(*in.TurnRight)
	}
	if in.TurnLeft != nil {
		a.ctrl.TurnLeft(*in.TurnLeft)
	}
	if in.Steer != nil {
		a.ctrl.SetSteer(*in.Steer)
	}

	if in.Accelerate != nil {
		a.ctrl.Accelerate(*in.Accelerate)
	}
	if in.Brake != nil {
		a.ctrl.Brake(*in.Brake)
	}
	if in.BrakeTarget != nil {
		a.ctrl.SetBrakeTarget(*in.BrakeTarget)
	}
	if in.ResetBrake {
		a.ctrl.ResetBrakeOutput()
	}

	switch {
	case in.CruiseMax != nil:
		a.ctrl.PrimeCruiseAt(*in.CruiseMax)
	case in.Cruise:
		a.ctrl.PrimeCruise()
	}
	return nil
}
