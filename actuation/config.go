package actuation

import "time"

// Default loop periods.
const (
	DefaultSteerPeriod     = 200 * time.Millisecond
	DefaultSteerIdlePeriod = 100 * time.Millisecond
	DefaultThrottlePeriod  = 250 * time.Millisecond
	DefaultBrakePeriod     = 200 * time.Millisecond
)

// Config holds the scheduling parameters of a Controller.
type Config struct {
	SteerPeriod     time.Duration // tick while a steer target is pending
	SteerIdlePeriod time.Duration // re-check interval with no steer target
	ThrottlePeriod  time.Duration
	BrakePeriod     time.Duration

	// Now is the clock used by the cruise rate limiter. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the standard loop timing.
func DefaultConfig() Config {
	return Config{
		SteerPeriod:     DefaultSteerPeriod,
		SteerIdlePeriod: DefaultSteerIdlePeriod,
		ThrottlePeriod:  DefaultThrottlePeriod,
		BrakePeriod:     DefaultBrakePeriod,
		Now:             time.Now,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SteerPeriod <= 0 {
		c.SteerPeriod = def.SteerPeriod
	}
	if c.SteerIdlePeriod <= 0 {
		c.SteerIdlePeriod = def.SteerIdlePeriod
	}
	if c.ThrottlePeriod <= 0 {
		c.ThrottlePeriod = def.ThrottlePeriod
	}
	if c.BrakePeriod <= 0 {
		c.BrakePeriod = def.BrakePeriod
	}
	if c.Now == nil {
		c.Now = def.Now
	}
	return c
}
