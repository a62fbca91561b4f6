package actuation

import "time"

// throttleStep is the throttle increase per throttle loop tick.
const throttleStep = 0.075

// Accelerate sets the throttle target. It overrides cruise control.
func (c *Controller) Accelerate(value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.ThrottleTarget = value
	c.st.CruiseBaseline = 0
}

// Brake applies value as brake output and cancels all acceleration,
// including cruise control.
func (c *Controller) Brake(value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.brake(value)
}

func (c *Controller) brake(value float64) {
	s := &c.st
	s.BrakeOutput = value
	s.Throttle = 0
	s.ThrottleTarget = 0
	s.CruiseBaseline = 0
}

// throttleTick ramps throttle up toward its target. Throttle above the
// target is left alone; only Brake lowers it.
func (c *Controller) throttleTick() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &c.st
	if s.Throttle < s.ThrottleTarget {
		s.Throttle += throttleStep
		if s.Throttle > s.ThrottleTarget-convergeEpsilon {
			s.Throttle = s.ThrottleTarget
		}
	}
	return c.cfg.ThrottlePeriod
}
