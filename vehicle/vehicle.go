package vehicle

import (
	"sync/atomic"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/scratch"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Vehicle is a chassis body driven by its drivetrain. Engine is nil for trailers.
// Only SetControls and Controls may be called outside the simulation goroutine.
type Vehicle struct {
	ID   uuid.UUID
	Name string

	Body       *actor.RigidBody
	Drivetrain *Drivetrain
	Engine     *EngineHandler

	controls atomic.Uint32
}

// New builds the chassis and wheels at transform. The config is validated.
func New(cfg Config, transform actor.Transform) (*Vehicle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chassis := &actor.Box{HalfExtents: cfg.HalfExtents}
	volume := 8 * cfg.HalfExtents.X() * cfg.HalfExtents.Y() * cfg.HalfExtents.Z()
	body := actor.NewRigidBody(transform, chassis, actor.BodyTypeDynamic, cfg.Mass/volume)
	body.Material.LinearDamping = 0.05
	body.Material.AngularDamping = 0.5

	v := &Vehicle{
		ID:         uuid.New(),
		Name:       cfg.Name,
		Body:       body,
		Drivetrain: NewDrivetrain(NewTireModel(cfg.Tire)),
	}
	for _, wheel := range cfg.Wheels {
		if _, err := v.Drivetrain.AddWheel(wheel.PartID, wheel); err != nil {
			return nil, err
		}
	}
	if cfg.Engine != nil {
		v.Engine = NewEngineHandler(*cfg.Engine, cfg.MaxSpeed)
	}
	v.SetControls(SpawnControls)

	return v, nil
}

func (v *Vehicle) RigidBody() *actor.RigidBody {
	return v.Body
}

// SetControls is safe from any goroutine; it is read at the next tick.
func (v *Vehicle) SetControls(c Controls) {
	v.controls.Store(uint32(c))
}

func (v *Vehicle) Controls() Controls {
	return Controls(v.controls.Load())
}

// Speed along the chassis heading in km/h, negative when backing up.
func (v *Vehicle) Speed() float64 {
	return v.Body.Velocity.Dot(v.Body.Transform.Forward()) * msToKmh
}

// PreUpdate runs before the space step: engine, gearbox, then wheel forces.
func (v *Vehicle) PreUpdate(dt float64, ground Ground, arena *scratch.Arena) {
	controls := v.Controls()
	if v.Engine != nil {
		v.Engine.Update(controls, v.Drivetrain, v.Speed())
	} else {
		v.Drivetrain.DisengageEngine()
		if controls.HandBrake() {
			v.Drivetrain.Handbrake(1)
		} else {
			v.Drivetrain.Handbrake(0)
		}
	}

	if ground != nil {
		v.Drivetrain.Update(dt, v.Body, ground, arena)
	}
}

type WheelState struct {
	PartID          int
	Index           int
	Grounded        bool
	Load            float64
	SlipRatio       float64
	SlipAngle       float64
	AngularVelocity float64
	SteerAngle      float64
}

// State is a copy of what the host reads between ticks.
type State struct {
	ID       uuid.UUID
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Speed    float64
	Gear     int
	RPM      float64
	Controls Controls
	Wheels   []WheelState
}

func (v *Vehicle) State() State {
	s := State{
		ID:       v.ID,
		Position: v.Body.Transform.Position,
		Rotation: v.Body.Transform.Rotation,
		Speed:    v.Speed(),
		Controls: v.Controls(),
		Wheels:   make([]WheelState, 0, v.Drivetrain.NumWheels()),
	}
	if v.Engine != nil {
		s.Gear = v.Engine.GearBox.ActiveGearNum()
		s.RPM = v.Engine.Engine.RPM()
	}
	for _, w := range v.Drivetrain.Wheels() {
		s.Wheels = append(s.Wheels, WheelState{
			PartID:          w.PartID,
			Index:           w.Index,
			Grounded:        w.Grounded,
			Load:            w.Load,
			SlipRatio:       w.SlipRatio,
			SlipAngle:       w.SlipAngle,
			AngularVelocity: w.AngularVelocity,
			SteerAngle:      w.SteerAngle,
		})
	}

	return s
}
