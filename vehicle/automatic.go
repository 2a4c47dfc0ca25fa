package vehicle

const (
	// ShiftMargin is how close to a band edge, in rpm, a shift happens
	ShiftMargin = 100.0
	// DefaultIdleRPM is the neutral target when the engine has no idle setting
	DefaultIdleRPM = 1000.0
	// shiftWindow is the change counter value below which shifting is allowed again
	shiftWindow = 2
)

// AutomaticGearbox picks the gear and drives the engine revs from the wheel speed.
type AutomaticGearbox struct {
	targetRPM float64
}

// TargetRPM is the normalized revs the engine moves to during a gear change.
func (a *AutomaticGearbox) TargetRPM() float64 {
	return a.targetRPM
}

// Update runs once per tick. wheelSpeedKmh is the averaged driving wheel speed,
// acceleration is positive forward, negative in reverse, zero when coasting.
func (a *AutomaticGearbox) Update(engine *Engine, gearbox *GearBox, wheelSpeedKmh, acceleration float64) {
	if !engine.Started() {
		gearbox.SetActiveGearNum(0)
		engine.SetRevs(0)
		return
	}

	rpm := engine.RPM()
	gear := gearbox.ActiveGear()
	changed := false
	counter := gearbox.UpdateChangeCounter()
	oldGear := gearbox.ActiveGearNum()
	if counter <= shiftWindow {
		if rpm > gear.RPMEnd-ShiftMargin {
			changed = gearbox.IncreaseGear()
		} else if rpm < gear.RPMStart+ShiftMargin {
			changed = gearbox.DecreaseGear()
		}
	}

	// leaving neutral does not wait for the change counter
	if gearbox.ActiveGearNum() == 0 && acceleration != 0 {
		if acceleration > 0 {
			gearbox.SetActiveGearNum(1)
		} else {
			gearbox.SetActiveGearNum(-1)
		}
		changed = false
	}

	revs := engine.Revs()
	switch {
	case gearbox.ActiveGearNum() == 0:
		a.targetRPM = engine.IdleRPM / engine.MaxRevs
		revs += (a.targetRPM - revs) / 2
	case changed && oldGear != 0:
		// hold the revs this tick, the next ones move to the new gear
		a.targetRPM = clamp(gearbox.RPM(engine, wheelSpeedKmh), 0, 1)
	case gearbox.ChangeCounter() > 0:
		revs += (a.targetRPM - revs) / float64(gearbox.ChangeTime)
	default:
		revs = gearbox.RPM(engine, wheelSpeedKmh)
	}

	engine.SetRevs(revs)
}
