package actuation

import (
	"math"
	"time"
)

// Cruise tuning.
const (
	cruiseMinForwardSpeed = 0.1 // m/s, motion threshold for priming
	cruiseShortInterval   = time.Second
	cruiseLongInterval    = 3 * time.Second
	cruiseFastBaseline    = 15 // km/h, above this nudges are larger and rarer
	cruiseHardBrake       = 0.3
)

// CruiseCorrection describes what CorrectCruise did.
type CruiseCorrection int

const (
	CruiseNone CruiseCorrection = iota
	CruiseThrottle
	CruiseBrake
)

func (k CruiseCorrection) String() string {
	switch k {
	case CruiseThrottle:
		return "throttle"
	case CruiseBrake:
		return "brake"
	default:
		return "none"
	}
}

// PrimeCruise establishes the cruise baseline at the current speed.
// See PrimeCruiseAt.
func (c *Controller) PrimeCruise() {
	c.PrimeCruiseAt(0)
}

// PrimeCruiseAt establishes the cruise baseline at maxSpeed (km/h), or at
// the current speed when maxSpeed is zero, clamped to the speed ceiling.
// It takes effect once per motion episode: only while no baseline is set
// and the vehicle is moving. Throttle is seeded from the baseline.
func (c *Controller) PrimeCruiseAt(maxSpeed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &c.st
	if s.CruiseBaseline != 0 || s.ForwardSpeed <= cruiseMinForwardSpeed {
		return
	}

	speed := maxSpeed
	if speed == 0 {
		speed = s.CurrentSpeed
	}
	if speed > s.MaxSpeedCeiling {
		speed = s.MaxSpeedCeiling
	}
	s.CruiseBaseline = speed
	s.Throttle = seedThrottle(speed)
	c.log.Debug("Cruise primed: baseline=%.2f km/h throttle=%.2f", speed, s.Throttle)
}

// CruiseBaseline returns the cruise baseline in km/h, 0 when unset.
func (c *Controller) CruiseBaseline() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.CruiseBaseline
}

// seedThrottle maps a cruise speed to an initial throttle. The <=12 band is
// overridden by the <=16 band.
func seedThrottle(speed float64) float64 {
	var throttle float64
	if speed <= 12 {
		throttle = 0.45
	}
	if speed <= 16 {
		throttle = 0.5
	} else if speed <= 22 {
		throttle = 0.55
	} else if speed <= 35 {
		throttle = 0.6
	} else {
		throttle = 0.7
	}
	return throttle
}

// CorrectCruise nudges throttle, or brakes hard, to hold the cruise
// baseline. It must be called at a steady cadence; corrections are spaced
// at least NextCorrectionInterval apart.
func (c *Controller) CorrectCruise() CruiseCorrection {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &c.st
	now := c.cfg.Now()
	if s.CruiseBaseline <= 0 || now.Sub(s.MaintainTimestamp) <= s.NextCorrectionInterval {
		return CruiseNone
	}

	fast := s.CruiseBaseline > cruiseFastBaseline
	interval := cruiseShortInterval
	nudge := 0.05
	if fast {
		interval = cruiseLongInterval
		nudge = 0.07
	}

	delta := s.CurrentSpeed - s.CruiseBaseline
	var kind CruiseCorrection
	switch abs := math.Abs(delta); {
	case abs > 20:
		c.brake(cruiseHardBrake)
		s.NextCorrectionInterval = cruiseShortInterval
		kind = CruiseBrake
	case abs > 10:
		s.Throttle -= math.Copysign(nudge, delta)
		s.NextCorrectionInterval = interval
		kind = CruiseThrottle
	case abs > 5:
		s.Throttle -= math.Copysign(0.04, delta)
		s.NextCorrectionInterval = interval
		kind = CruiseThrottle
	default:
		return CruiseNone
	}

	s.MaintainTimestamp = now
	c.log.Trace("Cruise correction: %s delta=%.2f throttle=%.3f next=%v",
		kind, delta, s.Throttle, s.NextCorrectionInterval)
	c.metrics.cruiseCorrection(kind)
	return kind
}
