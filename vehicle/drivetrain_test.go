package vehicle

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func newTestDrivetrain(t *testing.T) *Drivetrain {
	t.Helper()

	cfg := DefaultConfig()
	d := NewDrivetrain(NewTireModel(cfg.Tire))
	for _, w := range cfg.Wheels {
		if _, err := d.AddWheel(w.PartID, w); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func assertDense(t *testing.T, d *Drivetrain) {
	t.Helper()

	if len(d.byPart) != d.NumWheels() {
		t.Fatalf("%d part ids for %d wheels", len(d.byPart), d.NumWheels())
	}
	for i, w := range d.Wheels() {
		if w.Index != i {
			t.Fatalf("wheel at %d has index %d", i, w.Index)
		}
		if index, ok := d.IndexOf(w.PartID); !ok || index != i {
			t.Fatalf("part %d maps to %d, want %d", w.PartID, index, i)
		}
	}
}

// ============================================================================
// Dense indices
// ============================================================================

func TestDrivetrain_RemoveWheelCompacts(t *testing.T) {
	d := newTestDrivetrain(t)
	rearLeft, _ := d.WheelByPart(3)

	if !d.RemoveWheel(1) {
		t.Fatal("RemoveWheel(1) = false")
	}
	assertDense(t, d)

	if d.NumWheels() != 3 {
		t.Errorf("NumWheels() = %d, want 3", d.NumWheels())
	}
	if w, ok := d.WheelByPart(3); !ok || w != rearLeft || w.Index != 2 {
		t.Errorf("part 3 no longer maps to its wheel at index 2: %+v", w)
	}
	if _, ok := d.WheelByPart(1); ok {
		t.Error("removed part still resolves")
	}
	if d.RemoveWheel(1) {
		t.Error("removing a missing wheel returned true")
	}
}

func TestDrivetrain_AddDuplicate(t *testing.T) {
	d := newTestDrivetrain(t)
	_, err := d.AddWheel(2, DefaultConfig().Wheels[0])
	if !errors.Is(err, ErrDuplicateWheel) {
		t.Errorf("AddWheel() = %v, want ErrDuplicateWheel", err)
	}
	assertDense(t, d)
}

func TestDrivetrain_RandomAddRemoveStaysDense(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	template := DefaultConfig().Wheels[0]

	for run := 0; run < 50; run++ {
		d := NewDrivetrain(TireModel{})
		present := make(map[int]bool)

		for op := 0; op < 200; op++ {
			part := rng.IntN(16)
			if rng.IntN(3) == 0 || present[part] {
				removed := d.RemoveWheel(part)
				if removed != present[part] {
					t.Fatalf("run %d op %d: RemoveWheel(%d) = %v, present %v", run, op, part, removed, present[part])
				}
				delete(present, part)
			} else {
				if _, err := d.AddWheel(part, template); err != nil {
					t.Fatalf("run %d op %d: AddWheel(%d) = %v", run, op, part, err)
				}
				present[part] = true
			}
			assertDense(t, d)
		}
	}
}

// ============================================================================
// Commands
// ============================================================================

func TestDrivetrain_Accelerate(t *testing.T) {
	cfg := *DefaultConfig().Engine

	tests := []struct {
		name     string
		started  bool
		engaged  bool
		strength float64
		speed    float64
		want     float64
	}{
		{"full throttle", true, true, 1, 20, 600},
		{"reverse", true, true, -1, -5, -600},
		{"half throttle", true, true, 0.5, 20, 300},
		{"over the speed limit", true, true, 1, 170, 0},
		{"neutral", true, false, 1, 20, 0},
		{"engine off", false, true, 1, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDrivetrain(t)
			engine := NewEngine(cfg)
			engine.SetStarted(tt.started)
			engine.SetRevs(0.5)

			d.Accelerate(engine, tt.engaged, tt.strength, tt.speed, 160)

			for _, w := range d.Wheels() {
				want := 0.0
				if w.Config.Driving {
					want = tt.want
				}
				if math.Abs(w.DriveTorque()-want) > 1e-9 {
					t.Errorf("wheel %d torque = %v, want %v", w.PartID, w.DriveTorque(), want)
				}
			}
			if d.IsAccelerating() != (tt.want != 0) {
				t.Errorf("IsAccelerating() = %v", d.IsAccelerating())
			}
		})
	}
}

func TestDrivetrain_Brakes(t *testing.T) {
	d := newTestDrivetrain(t)
	engine := NewEngine(*DefaultConfig().Engine)
	engine.SetStarted(true)
	engine.SetRevs(0.5)

	d.Handbrake(1)
	for _, w := range d.Wheels() {
		want := 0.0
		if w.Config.HandBrake {
			want = w.Config.HandBrakeTorque
		}
		if w.BrakeTorque() != want {
			t.Errorf("wheel %d handbrake torque = %v, want %v", w.PartID, w.BrakeTorque(), want)
		}
	}
	d.Handbrake(0)

	d.Accelerate(engine, true, 1, 0, 160)
	d.ApplyEngineBraking(engine)
	for _, w := range d.Wheels() {
		if w.DriveTorque() != 0 {
			t.Errorf("wheel %d still driven while engine braking", w.PartID)
		}
		want := 0.0
		if w.Config.Driving {
			want = engine.Braking
		}
		if w.BrakeTorque() != want {
			t.Errorf("wheel %d engine braking = %v, want %v", w.PartID, w.BrakeTorque(), want)
		}
	}

	// accelerating releases the engine braking
	d.Accelerate(engine, true, 1, 0, 160)
	d.Brake(0.5)
	for _, w := range d.Wheels() {
		if want := 0.5 * w.Config.BrakeTorque; w.BrakeTorque() != want {
			t.Errorf("wheel %d brake torque = %v, want %v", w.PartID, w.BrakeTorque(), want)
		}
	}
}

func TestDrivetrain_Steer(t *testing.T) {
	d := newTestDrivetrain(t)
	d.Steer(2)

	for _, w := range d.Wheels() {
		want := 0.0
		if w.Config.Steerable {
			want = w.Config.MaxSteerAngle
		}
		if w.SteerAngle != want {
			t.Errorf("wheel %d steer = %v, want %v", w.PartID, w.SteerAngle, want)
		}
	}
}

func TestDrivetrain_DrivingWheelSpeed(t *testing.T) {
	d := newTestDrivetrain(t)
	for _, w := range d.Wheels() {
		if w.Config.Driving {
			w.AngularVelocity = 10
		} else {
			w.AngularVelocity = 100
		}
	}

	if got, want := d.DrivingWheelSpeed(), 10*0.35*3.6; math.Abs(got-want) > 1e-9 {
		t.Errorf("DrivingWheelSpeed() = %v, want %v", got, want)
	}

	trailer := NewDrivetrain(TireModel{})
	if got := trailer.DrivingWheelSpeed(); got != 0 {
		t.Errorf("no driving wheel gave %v", got)
	}
}
