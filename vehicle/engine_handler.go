package vehicle

import "math"

// ReverseSwitchSpeed is the speed, in km/h, under which pressing against the
// gear direction changes direction instead of braking.
const ReverseSwitchSpeed = 3.0

// EngineHandler turns the driver controls into drivetrain commands each tick.
type EngineHandler struct {
	Engine    *Engine
	GearBox   *GearBox
	Automatic *AutomaticGearbox
	// SpeedLimit in km/h
	SpeedLimit float64
}

func NewEngineHandler(cfg EngineConfig, speedLimit float64) *EngineHandler {
	return &EngineHandler{
		Engine:     NewEngine(cfg),
		GearBox:    NewGearBox(cfg),
		Automatic:  &AutomaticGearbox{},
		SpeedLimit: speedLimit,
	}
}

// Engaged is true when a gear is selected
func (h *EngineHandler) Engaged() bool {
	return h.GearBox.ActiveGearNum() != 0
}

// Update reads the controls, runs the gearbox and commands the drivetrain.
// speedKmh is the signed chassis speed along its heading.
func (h *EngineHandler) Update(controls Controls, drivetrain *Drivetrain, speedKmh float64) {
	h.Engine.SetStarted(controls.EngineOn())

	acceleration := 0.0
	if controls.Accelerate() {
		acceleration++
	}
	if controls.Reverse() {
		acceleration--
	}

	h.Automatic.Update(h.Engine, h.GearBox, drivetrain.DrivingWheelSpeed(), acceleration)

	brake := 0.0
	gear := h.GearBox.ActiveGearNum()
	switch {
	case !h.Engine.Started():
		drivetrain.DisengageEngine()
	case acceleration == 0:
		if h.Engaged() {
			drivetrain.ApplyEngineBraking(h.Engine)
		} else {
			drivetrain.DisengageEngine()
		}
	case gear != 0 && (acceleration > 0) != (gear > 0):
		// input against the gear: brake, then change direction once stopped
		drivetrain.DisengageEngine()
		if math.Abs(speedKmh) < ReverseSwitchSpeed {
			h.GearBox.SetActiveGearNum(0)
		} else {
			brake = 1
		}
	default:
		drivetrain.Accelerate(h.Engine, h.Engaged(), acceleration, speedKmh, h.SpeedLimit)
	}

	drivetrain.Brake(brake)
	if controls.HandBrake() {
		drivetrain.Handbrake(1)
	} else {
		drivetrain.Handbrake(0)
	}

	steer := 0.0
	if controls.Left() {
		steer++
	}
	if controls.Right() {
		steer--
	}
	drivetrain.Steer(steer)
}
