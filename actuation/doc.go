// Package actuation turns driving intents into actuator values.
//
// A [Controller] owns one vehicle session's actuator state and runs three
// background loops against it:
//
//   - steer: converges steer toward a pending target (slow-return mode)
//   - throttle: ramps throttle up toward its target
//   - brake governor: brakes while current speed is above a brake target
//
// Intent producers call the setters ([Controller.TurnRight],
// [Controller.Accelerate], [Controller.SetBrakeTarget], ...). The platform
// samples [Controller.Snapshot] once per physics tick and drives cruise
// control by calling [Controller.CorrectCruise] at the same cadence.
//
// # Usage
//
//	ctrl := actuation.New(actuation.DefaultConfig(), log, nil)
//	if err := ctrl.Start(ctx); err != nil {
//		return err
//	}
//	defer ctrl.Close()
//
//	ctrl.Accelerate(0.6)
//	v := ctrl.Snapshot()
//
// # Thread Safety
//
// All methods are safe for concurrent use. State is guarded by a single
// mutex and every loop tick performs its read-modify-write inside one
// critical section, so a setter is visible to the next tick of every loop.
package actuation
