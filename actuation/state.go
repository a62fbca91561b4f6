package actuation

import (
	"fmt"
	"time"
)

// kphPerMPS converts forward speed (m/s) to current speed (km/h).
const kphPerMPS = 3.6

// SteerMode selects how direct steer commands are applied.
type SteerMode int

const (
	// SteerDirect writes direct steer commands immediately.
	SteerDirect SteerMode = iota
	// SteerSlowReturn routes direct steer commands through the turn
	// operations so the steer loop eases toward them.
	SteerSlowReturn
)

func (m SteerMode) String() string {
	switch m {
	case SteerDirect:
		return "direct"
	case SteerSlowReturn:
		return "slow_return"
	default:
		return "unknown"
	}
}

// ParseSteerMode parses the String form of a SteerMode.
func ParseSteerMode(s string) (SteerMode, error) {
	switch s {
	case "direct", "":
		return SteerDirect, nil
	case "slow_return", "slow-return", "slow":
		return SteerSlowReturn, nil
	default:
		return SteerDirect, fmt.Errorf("unknown steer mode %q", s)
	}
}

// Values is the actuator output sampled by the platform each tick.
type Values struct {
	Steer    float64 // -1 (full left) .. 1 (full right)
	Throttle float64 // 0 .. 1
	Brake    float64 // 0 .. 1
}

// Active reports whether any output is non-neutral.
func (v Values) Active() bool {
	return v.Steer != 0 || v.Throttle != 0 || v.Brake != 0
}

// ActuatorState is the shared state block of one vehicle session.
//
// Steer is not range-clamped; values outside [-1, 1] are passed through
// and clamped at the wire encoder.
type ActuatorState struct {
	Steer       float64
	SteerTarget float64 // 0 means no pending target
	SteerMode   SteerMode
	Turning     bool

	Throttle       float64
	ThrottleTarget float64

	BrakeOutput float64
	BrakeTarget float64 // not-to-exceed speed in km/h, 0 = inactive

	ForwardSpeed    float64 // m/s, never negative
	CurrentSpeed    float64 // km/h, ForwardSpeed * 3.6
	MaxSpeedCeiling float64 // km/h

	CruiseBaseline         float64 // km/h, 0 = unset
	MaintainTimestamp      time.Time
	NextCorrectionInterval time.Duration
}

func newActuatorState() ActuatorState {
	return ActuatorState{NextCorrectionInterval: cruiseShortInterval}
}

// SetForwardSpeed records the vehicle's forward speed in m/s and derives
// the current speed in km/h. Negative speeds are rejected with
// ErrInvalidSpeed and leave the state unchanged.
func (c *Controller) SetForwardSpeed(mps float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setForwardSpeed(mps)
}

func (c *Controller) setForwardSpeed(mps float64) error {
	if mps < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, mps)
	}
	c.st.ForwardSpeed = mps
	c.st.CurrentSpeed = mps * kphPerMPS
	return nil
}

// SetSpeedEnvelope sets the forward speed and the cruise speed ceiling.
// The ceiling is left untouched when the speed is rejected.
func (c *Controller) SetSpeedEnvelope(forwardSpeed, maxSpeedCeiling float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.setForwardSpeed(forwardSpeed); err != nil {
		return err
	}
	c.st.MaxSpeedCeiling = maxSpeedCeiling
	return nil
}

// CurrentSpeed returns the last reported speed in km/h.
func (c *Controller) CurrentSpeed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.CurrentSpeed
}

// Snapshot returns the actuator values to apply this tick.
func (c *Controller) Snapshot() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Values{
		Steer:    c.st.Steer,
		Throttle: c.st.Throttle,
		Brake:    c.st.BrakeOutput,
	}
}

// IsActive reports whether any actuator output is non-neutral.
func (c *Controller) IsActive() bool {
	return c.Snapshot().Active()
}

// State returns a copy of the full state block.
func (c *Controller) State() ActuatorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}
