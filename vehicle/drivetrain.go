package vehicle

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/scratch"
	"github.com/go-gl/mathgl/mgl64"
)

var ErrDuplicateWheel = errors.New("vehicle: duplicate wheel part id")

const msToKmh = 3.6

// Drivetrain owns the wheels. Indices stay dense: removing a wheel shifts the
// higher ones down, part ids keep pointing at the same wheel.
type Drivetrain struct {
	Tire TireModel

	wheels       []*Wheel
	byPart       map[int]int
	accelerating bool
}

func NewDrivetrain(tire TireModel) *Drivetrain {
	return &Drivetrain{
		Tire:   tire,
		byPart: make(map[int]int),
	}
}

func (d *Drivetrain) AddWheel(partID int, cfg WheelConfig) (*Wheel, error) {
	if _, ok := d.byPart[partID]; ok {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateWheel, partID)
	}
	cfg.PartID = partID

	wheel := newWheel(len(d.wheels), cfg)
	d.wheels = append(d.wheels, wheel)
	d.byPart[partID] = wheel.Index

	return wheel, nil
}

// RemoveWheel returns false when no wheel has this part id.
func (d *Drivetrain) RemoveWheel(partID int) bool {
	index, ok := d.byPart[partID]
	if !ok {
		return false
	}

	d.wheels = append(d.wheels[:index], d.wheels[index+1:]...)
	delete(d.byPart, partID)
	for i := index; i < len(d.wheels); i++ {
		d.wheels[i].Index = i
		d.byPart[d.wheels[i].PartID] = i
	}

	return true
}

func (d *Drivetrain) NumWheels() int {
	return len(d.wheels)
}

func (d *Drivetrain) Wheel(index int) *Wheel {
	return d.wheels[index]
}

func (d *Drivetrain) WheelByPart(partID int) (*Wheel, bool) {
	index, ok := d.byPart[partID]
	if !ok {
		return nil, false
	}
	return d.wheels[index], true
}

func (d *Drivetrain) Wheels() []*Wheel {
	return d.wheels
}

// IndexOf returns the dense index of a part id
func (d *Drivetrain) IndexOf(partID int) (int, bool) {
	index, ok := d.byPart[partID]
	return index, ok
}

func (d *Drivetrain) IsAccelerating() bool {
	return d.accelerating
}

// Accelerate drives the driving wheels with the engine power. strength is
// signed, negative in reverse. Wheels stop being driven over the speed limit.
func (d *Drivetrain) Accelerate(engine *Engine, engaged bool, strength, speedKmh, speedLimit float64) {
	if !engine.Started() {
		d.DisengageEngine()
		return
	}

	d.accelerating = false
	for _, wheel := range d.wheels {
		if wheel.Config.Driving && strength != 0 && engaged && math.Abs(speedKmh) < speedLimit {
			wheel.Accelerate(engine.PowerOutput() * strength * 2)
			d.accelerating = true
		} else {
			wheel.Accelerate(0)
		}
	}
}

func (d *Drivetrain) DisengageEngine() {
	d.accelerating = false
	for _, wheel := range d.wheels {
		wheel.Accelerate(0)
	}
}

func (d *Drivetrain) Brake(strength float64) {
	for _, wheel := range d.wheels {
		wheel.Brake(strength)
	}
}

// Handbrake only acts on the hand brake wheels
func (d *Drivetrain) Handbrake(strength float64) {
	for _, wheel := range d.wheels {
		if wheel.Config.HandBrake {
			wheel.HandBrake(strength)
		}
	}
}

func (d *Drivetrain) Steer(strength float64) {
	for _, wheel := range d.wheels {
		wheel.Steer(strength)
	}
}

// ApplyEngineBraking disengages the engine and brakes the driving wheels with it.
func (d *Drivetrain) ApplyEngineBraking(engine *Engine) {
	d.DisengageEngine()
	for _, wheel := range d.wheels {
		if wheel.Config.Driving {
			wheel.EngineBrake(engine.Braking)
		}
	}
}

// DrivingWheelSpeed is the tread speed averaged over the driving wheels, in km/h.
func (d *Drivetrain) DrivingWheelSpeed() float64 {
	sum, n := 0.0, 0
	for _, wheel := range d.wheels {
		if wheel.Config.Driving {
			sum += wheel.SurfaceSpeed()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) * msToKmh
}

// Update computes every wheel contact against the same chassis state, then
// applies the forces and spins the wheels.
func (d *Drivetrain) Update(dt float64, body *actor.RigidBody, ground Ground, arena *scratch.Arena) {
	n := len(d.wheels)
	if n == 0 || dt <= 0 {
		return
	}

	forces := vec3s(arena, n)
	points := vec3s(arena, n)
	massShare := body.Material.GetMass() / float64(n)
	for i, wheel := range d.wheels {
		forces[i], points[i] = wheel.contact(dt, body, ground, d.Tire, massShare)
	}

	for i, wheel := range d.wheels {
		if wheel.Grounded {
			body.AddForceAtPoint(forces[i], points[i])
		}
		wheel.spin(dt)
	}
}

func vec3s(arena *scratch.Arena, n int) []mgl64.Vec3 {
	if arena == nil {
		return make([]mgl64.Vec3, n)
	}
	return arena.Vec3s(n)
}
