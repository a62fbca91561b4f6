package actuation

import (
	"math"
	"time"
)

// Steer loop step sizes. The fast step applies while steer sits on the far
// side of zero from the direction of travel, the settle step otherwise.
const (
	steerFastStep   = 0.1
	steerSettleStep = 0.02
)

// TurnRight steers right to value. In slow-return mode, when steer is
// already at or right of value, the move is deferred to the steer loop.
func (c *Controller) TurnRight(value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turnRight(value)
}

// TurnLeft steers left to -value, mirroring TurnRight.
func (c *Controller) TurnLeft(value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turnLeft(value)
}

// SetSteer writes steer directly, or in slow-return mode routes the value
// through TurnRight (value > 0) or TurnLeft (|value|).
func (c *Controller) SetSteer(value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.SteerMode == SteerSlowReturn {
		if value > 0 {
			c.turnRight(value)
		} else {
			c.turnLeft(math.Abs(value))
		}
		return
	}
	c.st.Steer = value
}

// SetSteerMode switches between direct and slow-return steering.
func (c *Controller) SetSteerMode(mode SteerMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.SteerMode = mode
}

// SteerMode returns the active steer mode.
func (c *Controller) SteerMode() SteerMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.SteerMode
}

// Turning reports whether a turn operation has been issued this session.
func (c *Controller) Turning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.Turning
}

func (c *Controller) turnRight(value float64) {
	s := &c.st
	s.Turning = true
	if s.SteerMode == SteerDirect || s.Steer < value {
		s.SteerMode = SteerDirect
		s.SteerTarget = 0
		s.Steer = value
		return
	}
	s.SteerTarget = value
}

func (c *Controller) turnLeft(value float64) {
	s := &c.st
	s.Turning = true
	if s.SteerMode == SteerDirect || s.Steer > -value {
		s.SteerMode = SteerDirect
		s.SteerTarget = 0
		s.Steer = -value
		return
	}
	s.SteerTarget = -value
}

// steerTick moves steer one step toward a pending target. Landing on or past
// the target snaps to it and leaves slow-return mode.
func (c *Controller) steerTick() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &c.st
	if s.SteerTarget == 0 {
		return c.cfg.SteerIdlePeriod
	}

	switch {
	case s.Steer < s.SteerTarget:
		step := steerSettleStep
		if s.Steer > 0 {
			step = steerFastStep
		}
		s.Steer += step
		if s.Steer > s.SteerTarget-convergeEpsilon {
			c.snapSteer()
		}
	case s.Steer > s.SteerTarget:
		step := steerSettleStep
		if s.Steer < 0 {
			step = steerFastStep
		}
		s.Steer -= step
		if s.Steer < s.SteerTarget+convergeEpsilon {
			c.snapSteer()
		}
	}
	return c.cfg.SteerPeriod
}

func (c *Controller) snapSteer() {
	c.st.Steer = c.st.SteerTarget
	if c.st.SteerMode == SteerSlowReturn {
		c.log.Debug("Steer settled at %.3f; leaving slow-return mode", c.st.Steer)
	}
	c.st.SteerMode = SteerDirect
}
