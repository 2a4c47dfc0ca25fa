package constraint

import (
	"github.com/akmonengine/traction/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Joint is a constraint between two bodies, solved inside each substep of the space.
type Joint interface {
	Bodies() (*actor.RigidBody, *actor.RigidBody)
	SolvePosition(dt float64)
	SolveVelocity(dt float64)
}

func clampSmallVelocities(rb *actor.RigidBody) {
	const velocityThreshold = 1e-5

	if rb.Velocity.Len() < velocityThreshold {
		rb.Velocity = mgl64.Vec3{0, 0, 0}
	}
	if rb.AngularVelocity.Len() < velocityThreshold {
		rb.AngularVelocity = mgl64.Vec3{0, 0, 0}
	}
}

// applyPositionCorrection moves and rotates a body by an XPBD positional impulse at r
func applyPositionCorrection(body *actor.RigidBody, impulse, r mgl64.Vec3) {
	if body.BodyType == actor.BodyTypeStatic {
		return
	}
	body.Transform.Position = body.Transform.Position.Add(impulse.Mul(body.InverseMass()))

	deltaRot := body.GetInverseInertiaWorld().Mul3x1(r.Cross(impulse))
	if deltaRot.Len() > 1e-10 {
		// small angle: q_delta ≈ [1, δθ/2]
		qDelta := mgl64.Quat{W: 1.0, V: deltaRot.Mul(0.5)}.Normalize()
		body.Transform.Rotation = qDelta.Mul(body.Transform.Rotation).Normalize()
		body.Transform.InverseRotation = body.Transform.Rotation.Inverse()
	}
}
