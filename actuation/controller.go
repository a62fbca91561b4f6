package actuation

import (
	"context"
	"sync"
	"time"

	"actuation-core/utils"
)

// convergeEpsilon absorbs float drift when a ramp lands on its target.
const convergeEpsilon = 1e-9

// Controller is the actuation controller of one vehicle session.
type Controller struct {
	cfg     Config
	log     *utils.Logger
	metrics *Metrics

	mu sync.Mutex
	st ActuatorState

	lifeMu  sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a controller. Loops do not run until Start is called.
// log and metrics may be nil.
func New(cfg Config, log *utils.Logger, metrics *Metrics) *Controller {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &Controller{
		cfg:     cfg.withDefaults(),
		log:     log,
		metrics: metrics,
		st:      newActuatorState(),
	}
}

// Start launches the steer, throttle and brake loops. They run until ctx
// is canceled or Close is called.
func (c *Controller) Start(ctx context.Context) error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(3)
	go c.loop(ctx, "steer", c.steerTick)
	go c.loop(ctx, "throttle", c.throttleTick)
	go c.loop(ctx, "brake", c.brakeTick)
	c.log.Info("Actuation loops started: steer=%v/%v throttle=%v brake=%v",
		c.cfg.SteerPeriod, c.cfg.SteerIdlePeriod, c.cfg.ThrottlePeriod, c.cfg.BrakePeriod)
	return nil
}

// Close stops all loops and waits for them to exit. Safe to call more than once.
func (c *Controller) Close() error {
	c.lifeMu.Lock()
	if c.closed {
		c.lifeMu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.lifeMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	return nil
}

// loop runs tick immediately and then again after each period it returns.
func (c *Controller) loop(ctx context.Context, name string, tick func() time.Duration) {
	defer c.wg.Done()
	c.log.Debug("%s loop started", name)
	defer c.log.Debug("%s loop stopped", name)

	timer := time.NewTimer(tick())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			timer.Reset(tick())
		}
	}
}
