package vehicle

import "testing"

func newTestHandler(t *testing.T) (*EngineHandler, *Drivetrain) {
	t.Helper()

	cfg := DefaultConfig()
	return NewEngineHandler(*cfg.Engine, cfg.MaxSpeed), newTestDrivetrain(t)
}

func TestEngineHandler_EngineOff(t *testing.T) {
	h, d := newTestHandler(t)
	h.Update(ControlAccelerate, d, 0)

	if h.Engaged() || h.Engine.Started() {
		t.Error("engine off must stay in neutral")
	}
	for _, w := range d.Wheels() {
		if w.DriveTorque() != 0 {
			t.Errorf("wheel %d driven with the engine off", w.PartID)
		}
	}
}

func TestEngineHandler_LeavesNeutral(t *testing.T) {
	tests := []struct {
		name     string
		controls Controls
		wantGear int
		positive bool
	}{
		{"forward", ControlEngineOn | ControlAccelerate, 1, true},
		{"reverse", ControlEngineOn | ControlReverse, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d := newTestHandler(t)
			h.Update(tt.controls, d, 0)

			if got := h.GearBox.ActiveGearNum(); got != tt.wantGear {
				t.Fatalf("gear = %d, want %d", got, tt.wantGear)
			}
			for _, w := range d.Wheels() {
				if !w.Config.Driving {
					continue
				}
				if (w.DriveTorque() > 0) != tt.positive || w.DriveTorque() == 0 {
					t.Errorf("wheel %d torque = %v", w.PartID, w.DriveTorque())
				}
			}
		})
	}
}

func TestEngineHandler_ReverseAgainstGear(t *testing.T) {
	h, d := newTestHandler(t)
	h.Update(ControlEngineOn|ControlAccelerate, d, 0)

	// still rolling forward: brake
	h.Update(ControlEngineOn|ControlReverse, d, 10)
	if h.GearBox.ActiveGearNum() != 1 {
		t.Fatalf("gear = %d, want 1", h.GearBox.ActiveGearNum())
	}
	for _, w := range d.Wheels() {
		if w.DriveTorque() != 0 || w.BrakeTorque() != w.Config.BrakeTorque {
			t.Errorf("wheel %d drive %v brake %v", w.PartID, w.DriveTorque(), w.BrakeTorque())
		}
	}

	// almost stopped: neutral, then reverse on the next tick
	h.Update(ControlEngineOn|ControlReverse, d, 1)
	if h.GearBox.ActiveGearNum() != 0 {
		t.Fatalf("gear = %d, want neutral", h.GearBox.ActiveGearNum())
	}
	h.Update(ControlEngineOn|ControlReverse, d, 0)
	if h.GearBox.ActiveGearNum() != -1 {
		t.Fatalf("gear = %d, want reverse", h.GearBox.ActiveGearNum())
	}
}

func TestEngineHandler_Coasting(t *testing.T) {
	h, d := newTestHandler(t)
	h.Update(ControlEngineOn|ControlAccelerate, d, 0)
	h.Update(ControlEngineOn|ControlLeft, d, 20)

	for _, w := range d.Wheels() {
		if w.DriveTorque() != 0 {
			t.Errorf("wheel %d still driven", w.PartID)
		}
		if w.Config.Driving && w.BrakeTorque() != h.Engine.Braking {
			t.Errorf("wheel %d engine braking = %v", w.PartID, w.BrakeTorque())
		}
		if w.Config.Steerable && w.SteerAngle != w.Config.MaxSteerAngle {
			t.Errorf("wheel %d steer = %v", w.PartID, w.SteerAngle)
		}
	}
}
