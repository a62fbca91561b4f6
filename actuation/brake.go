package actuation

import "time"

// lowSpeedBrakeTarget is the brake target below which intensity is scaled up.
const lowSpeedBrakeTarget = 15

// SetBrakeTarget sets the speed (km/h) the brake governor holds the vehicle
// under. Zero disables the governor.
func (c *Controller) SetBrakeTarget(kph float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.BrakeTarget = kph
}

// BrakeTarget returns the active brake target in km/h.
func (c *Controller) BrakeTarget() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.BrakeTarget
}

// ResetBrakeOutput releases the brake. The brake target is kept.
func (c *Controller) ResetBrakeOutput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.BrakeOutput = 0
}

// BrakeIntensity returns the governor's brake output for a vehicle at
// currentSpeed with the given brake target, both in km/h. It is zero when
// the target is inactive or not exceeded.
func BrakeIntensity(currentSpeed, brakeTarget float64) float64 {
	if brakeTarget == 0 || brakeTarget >= currentSpeed {
		return 0
	}

	diff := currentSpeed - brakeTarget
	var value float64
	switch {
	case diff > 20:
		value = 0.5
	case diff > 15:
		value = 0.25
	case diff > 10:
		value = 0.15
	case diff > 5:
		value = diff / 100
	default:
		value = diff / 200
	}

	if brakeTarget < lowSpeedBrakeTarget {
		value *= 1.5
	}
	return value
}

func (c *Controller) brakeTick() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &c.st
	if value := BrakeIntensity(s.CurrentSpeed, s.BrakeTarget); value > 0 {
		c.log.Trace("Brake governor: speed=%.2f target=%.2f intensity=%.3f",
			s.CurrentSpeed, s.BrakeTarget, value)
		c.brake(value)
		c.metrics.governorBrake()
	}
	return c.cfg.BrakePeriod
}
