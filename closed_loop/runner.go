package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.einride.tech/can"

	"actuation-core/actuation"
	"actuation-core/utils"
)

type RunnerConfig struct {
	Interface     string
	MapPath       string
	ScenarioPath  string // optional; without one the runner only relays
	FrameName     string // TX actuator command frame
	FeedbackFrame string // RX vehicle state frame
	SpeedSignal   string // m/s signal within FeedbackFrame
	MaxSpeedKPH   float64
}

// Actuator command signal names.
const (
	sigSystemEnable = "system_enable"
	sigSteer        = "steer_cmd"
	sigThrottlePct  = "throttle_cmd_pct"
	sigBrakePct     = "brake_cmd_pct"
)

// Runner is the platform side of the controller: once per frame cycle it
// samples the controller, encodes the actuator frame and transmits it.
// Vehicle state frames received on the bus are fed back as speed reports.
type Runner struct {
	cfg      RunnerConfig
	log      *utils.Logger
	cmap     *utils.CANMap
	scen     Scenario
	writer   utils.CANWriter
	reader   utils.CANReader
	fd       *utils.FrameDef
	feedback *utils.FrameDef
	ctrl     *actuation.Controller
	intents  *intentApplier
	metrics  *actuation.Metrics
}

func NewRunner(ctx context.Context, cfg RunnerConfig, ctrlCfg actuation.Config, log *utils.Logger, metrics *actuation.Metrics) (*Runner, error) {
	cmap, err := utils.LoadCANMap(cfg.MapPath)
	if err != nil {
		return nil, fmt.Errorf("load can map: %w", err)
	}

	var scen Scenario
	if cfg.ScenarioPath != "" {
		scen, err = LoadScenario(cfg.ScenarioPath)
		if err != nil {
			return nil, fmt.Errorf("load scenario: %w", err)
		}
	}

	writer, err := utils.NewSocketCANWriter(ctx, cfg.Interface)
	if err != nil {
		return nil, err
	}
	reader, err := utils.NewSocketCANReader(ctx, cfg.Interface)
	if err != nil {
		writer.Close()
		return nil, err
	}

	ctrl := actuation.New(ctrlCfg, log.With("actuation"), metrics)
	r, err := newRunner(cfg, log, cmap, scen, writer, reader, ctrl, metrics)
	if err != nil {
		reader.Close()
		writer.Close()
		return nil, err
	}
	return r, nil
}

func newRunner(cfg RunnerConfig, log *utils.Logger, cmap *utils.CANMap, scen Scenario,
	writer utils.CANWriter, reader utils.CANReader, ctrl *actuation.Controller, metrics *actuation.Metrics) (*Runner, error) {
	fd, err := cmap.FrameByName(cfg.FrameName)
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}
	if fd.CycleMS <= 0 {
		return nil, fmt.Errorf("frame %s has invalid cycle_ms %d", fd.Name, fd.CycleMS)
	}
	for _, name := range []string{sigSteer, sigThrottlePct, sigBrakePct} {
		if _, ok := fd.Signal(name); !ok {
			return nil, fmt.Errorf("frame %s lacks signal %q", fd.Name, name)
		}
	}

	r := &Runner{
		cfg:     cfg,
		log:     log,
		cmap:    cmap,
		scen:    scen,
		writer:  writer,
		reader:  reader,
		fd:      fd,
		ctrl:    ctrl,
		intents: &intentApplier{ctrl: ctrl, ceiling: cfg.MaxSpeedKPH},
		metrics: metrics,
	}

	if cfg.FeedbackFrame != "" {
		fb, err := cmap.FrameByName(cfg.FeedbackFrame)
		if err != nil {
			return nil, fmt.Errorf("feedback frame: %w", err)
		}
		if _, ok := fb.Signal(cfg.SpeedSignal); !ok {
			return nil, fmt.Errorf("feedback frame %s lacks signal %q", fb.Name, cfg.SpeedSignal)
		}
		r.feedback = fb
	}
	if err := ctrl.SetSpeedEnvelope(0, cfg.MaxSpeedKPH); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) Close() {
	_ = r.ctrl.Close()
	if r.reader != nil {
		_ = r.reader.Close()
	}
	if r.writer != nil {
		_ = r.writer.Close()
	}
}

// Run transmits until ctx ends or the scenario duration elapses.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("Starting TX: frame=%s id=0x%X dlc=%d cycle_ms=%d iface=%s scenario=%q duration=%.2fs",
		r.fd.Name, r.fd.ID, r.fd.DLC, r.fd.CycleMS, r.cfg.Interface,
		r.scen.Meta.Name, r.scen.Timing.DurationS)

	if err := r.ctrl.Start(ctx); err != nil {
		return err
	}
	defer r.ctrl.Close()

	start := time.Now()
	ticker := time.NewTicker(time.Duration(r.fd.CycleMS) * time.Millisecond)
	defer ticker.Stop()

	endAfter := time.Duration(r.scen.Timing.DurationS * float64(time.Second))
	player := newScenarioPlayer(&r.scen)
	var sent uint64

	rxChan := make(chan float64, 16)
	if r.feedback != nil && r.reader != nil {
		go r.receiveLoop(ctx, rxChan)
	}

	for {
		select {
		case <-ctx.Done():
			r.log.Warn("Context canceled; stopping TX")
			r.log.Info("Completed TX. frames_sent=%d", sent)
			return ctx.Err()

		case speed := <-rxChan:
			r.applySpeed(speed)

		case now := <-ticker.C:
			elapsed := now.Sub(start)
			if endAfter > 0 && elapsed > endAfter {
				r.log.Info("Completed TX. frames_sent=%d", sent)
				return nil
			}

			t := elapsed.Seconds()
			for _, ev := range player.Due(t) {
				r.log.Debug("t=%.3f event t=%.3f %s", t, ev.T, ev.Comment)
				if err := r.intents.Apply(ev.Intents); err != nil {
					r.log.Warn("Scenario event at t=%.3f rejected: %v", ev.T, err)
				}
			}

			if kind := r.ctrl.CorrectCruise(); kind != actuation.CruiseNone {
				r.log.Debug("t=%.3f cruise correction: %s", t, kind)
			}

			if err := r.transmit(ctx, t); err != nil {
				return err
			}
			sent++
		}
	}
}

// transmit samples the controller once and sends the actuator frame.
func (r *Runner) transmit(ctx context.Context, t float64) error {
	v := r.ctrl.Snapshot()
	frame, err := r.encode(v)
	if err != nil {
		r.log.Error("Encode failed at t=%.3f: %v", t, err)
		return err
	}

	if err := r.writer.WriteFrame(ctx, frame); err != nil {
		r.log.Critical("Transmit failed at t=%.3f: %v", t, err)
		return err
	}

	r.metrics.FrameSent()
	r.metrics.ObserveState(r.ctrl.State())
	r.log.Trace("TX t=%.3f id=0x%X len=%d data=% X active=%v steer=%.3f throttle=%.3f brake=%.3f",
		t, frame.ID, frame.Length, frame.Data[:frame.Length],
		v.Active(), v.Steer, v.Throttle, v.Brake)
	return nil
}

func (r *Runner) encode(v actuation.Values) (can.Frame, error) {
	return r.cmap.EncodeEinrideFrame(r.fd.Name, map[string]float64{
		sigSystemEnable: boolToFloat(v.Active()),
		sigSteer:        v.Steer,
		sigThrottlePct:  v.Throttle * 100,
		sigBrakePct:     v.Brake * 100,
	})
}

func (r *Runner) applySpeed(mps float64) {
	if err := r.intents.SetSpeed(mps); err != nil {
		if errors.Is(err, actuation.ErrInvalidSpeed) {
			r.metrics.InvalidSpeed()
			r.log.Warn("Ignoring speed report: %v", err)
			return
		}
		r.log.Error("Speed report failed: %v", err)
		return
	}
	r.log.Trace("RX speed=%.3f m/s", mps)
}

// receiveLoop decodes feedback frames and forwards their speed signal.
// A read error ends the loop: the reader only fails once its socket is gone.
func (r *Runner) receiveLoop(ctx context.Context, speeds chan<- float64) {
	r.log.Debug("RX loop started")
	defer r.log.Debug("RX loop stopped")

	for {
		frame, err := r.reader.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			r.log.Error("RX failed; speed feedback stopped: %v", err)
			return
		}
		if frame.ID != r.feedback.ID {
			continue
		}

		values, err := r.cmap.DecodeEinrideFrame(frame)
		if err != nil {
			r.log.Error("RX decode id=0x%X: %v", frame.ID, err)
			continue
		}

		select {
		case speeds <- values[r.cfg.SpeedSignal]:
		case <-ctx.Done():
			return
		default:
			r.log.Trace("RX speed dropped; consumer busy")
		}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
