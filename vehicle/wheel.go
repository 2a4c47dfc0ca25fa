package vehicle

import (
	"math"

	"github.com/akmonengine/traction/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Ground answers the suspension ray queries.
type Ground interface {
	SurfaceBelow(x, y, z, maxDepth float64) (float64, bool)
}

// Wheel is one suspension and tire. Index is its dense position in the drivetrain.
type Wheel struct {
	Index  int
	PartID int
	Config WheelConfig

	// AngularVelocity in rad/s, positive rolls forward
	AngularVelocity float64
	Rotation        float64
	SteerAngle      float64

	driveTorque   float64
	brake         float64
	handBrake     float64
	engineBraking float64

	Grounded     bool
	Load         float64
	Compression  float64
	SlipRatio    float64
	SlipAngle    float64
	ContactPoint mgl64.Vec3

	groundSpeed float64
	fx          float64
}

func newWheel(index int, cfg WheelConfig) *Wheel {
	return &Wheel{Index: index, PartID: cfg.PartID, Config: cfg}
}

func (w *Wheel) inertia() float64 {
	return 0.5 * w.Config.Mass * w.Config.Radius * w.Config.Radius
}

// Accelerate sets the drive torque in N·m and releases the engine braking.
func (w *Wheel) Accelerate(torque float64) {
	w.driveTorque = torque
	w.engineBraking = 0
}

func (w *Wheel) DriveTorque() float64 {
	return w.driveTorque
}

// Brake sets the service brake strength in [0, 1].
func (w *Wheel) Brake(strength float64) {
	w.brake = clamp(strength, 0, 1)
}

func (w *Wheel) HandBrake(strength float64) {
	w.handBrake = clamp(strength, 0, 1)
}

// EngineBrake sets the engine braking torque in N·m.
func (w *Wheel) EngineBrake(torque float64) {
	w.engineBraking = math.Max(0, torque)
}

// Steer turns a steerable wheel by strength in [-1, 1] of its max angle, positive to the left.
func (w *Wheel) Steer(strength float64) {
	if w.Config.Steerable {
		w.SteerAngle = clamp(strength, -1, 1) * w.Config.MaxSteerAngle
	}
}

// BrakeTorque is the total torque slowing the wheel down.
func (w *Wheel) BrakeTorque() float64 {
	return w.brake*w.Config.BrakeTorque + w.handBrake*w.Config.HandBrakeTorque + w.engineBraking
}

// SurfaceSpeed of the tread in m/s
func (w *Wheel) SurfaceSpeed() float64 {
	return w.AngularVelocity * w.Config.Radius
}

// contact runs the suspension query and the tire model. massShare is the
// chassis mass carried by this wheel.
func (w *Wheel) contact(dt float64, body *actor.RigidBody, ground Ground, tire TireModel, massShare float64) (force, point mgl64.Vec3) {
	transform := body.Transform
	attach := transform.PointToWorld(w.Config.Position)
	reach := w.Config.SuspensionRestLength + w.Config.Radius

	h, ok := ground.SurfaceBelow(attach.X(), attach.Y(), attach.Z(), reach)
	if !ok {
		w.Grounded = false
		w.Load, w.Compression, w.SlipRatio, w.SlipAngle = 0, 0, 0, 0
		w.groundSpeed, w.fx = 0, 0
		return mgl64.Vec3{}, attach
	}

	w.Grounded = true
	w.Compression = reach - (attach.Y() - h)
	point = mgl64.Vec3{attach.X(), h, attach.Z()}
	w.ContactPoint = point

	velocity := body.VelocityAtPoint(point)
	w.Load = math.Max(0, w.Config.SuspensionStiffness*w.Compression-w.Config.SuspensionDamping*velocity.Y())

	up := mgl64.Vec3{0, 1, 0}
	heading := transform.Forward()
	if w.SteerAngle != 0 {
		heading = mgl64.QuatRotate(w.SteerAngle, transform.Up()).Rotate(heading)
	}
	heading[1] = 0
	if heading.Len() < 1e-6 {
		// standing on its nose, only the spring acts
		w.groundSpeed, w.fx = 0, 0
		return up.Mul(w.Load), point
	}
	heading = heading.Normalize()
	side := up.Cross(heading)

	longitudinal := velocity.Dot(heading)
	lateral := velocity.Dot(side)
	w.SlipRatio = SlipRatio(w.SurfaceSpeed(), longitudinal)
	w.SlipAngle = SlipAngle(longitudinal, lateral)
	fx, fy := tire.Forces(w.Load, w.SlipRatio, w.SlipAngle)

	// friction never reverses the contact patch velocity within one tick
	if limit := math.Abs(longitudinal) * massShare / dt; fx*longitudinal < 0 && math.Abs(fx) > limit {
		fx = math.Copysign(limit, fx)
	}
	if limit := math.Abs(lateral) * massShare / dt; math.Abs(fy) > limit {
		fy = math.Copysign(limit, fy)
	}

	w.groundSpeed = longitudinal
	w.fx = fx
	return heading.Mul(fx).Add(side.Mul(fy)).Add(up.Mul(w.Load)), point
}

// spin integrates the wheel rotation from the drive, tire and brake torques.
func (w *Wheel) spin(dt float64) {
	inertia := w.inertia()
	radius := w.Config.Radius

	omega := w.AngularVelocity + w.driveTorque/inertia*dt
	if w.Grounded {
		// the tire pulls the tread toward the ground speed, without overshooting it
		rolling := w.groundSpeed / radius
		next := omega - w.fx*radius/inertia*dt
		if (omega-rolling)*(next-rolling) < 0 {
			next = rolling
		}
		omega = next
	}

	// brakes stop the wheel, they never turn it backwards
	if brake := w.BrakeTorque() / inertia * dt; math.Abs(omega) <= brake {
		omega = 0
	} else {
		omega -= math.Copysign(brake, omega)
	}

	w.AngularVelocity = omega
	w.Rotation = math.Mod(w.Rotation+omega*dt, 2*math.Pi)
}
