package constraint

import (
	"math"

	"github.com/akmonengine/traction/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultCompliance controls the joint stiffness.
	// Lower values = stiffer joint, higher values = softer, springy joint
	// Typical range: 1e-10 (rigid hitch) to 1e-4 (tow rope)
	DefaultCompliance = 1e-8
)

// DistanceJoint keeps two anchor points at a fixed distance (tow bar, trailer hitch).
// With Length 0 it behaves like a ball-and-socket joint.
type DistanceJoint struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
	// Anchors in each body's local space
	AnchorA mgl64.Vec3
	AnchorB mgl64.Vec3

	Length     float64
	Compliance float64
	// Damping removes relative velocity along the joint axis, 0 - 1
	Damping float64
}

// NewDistanceJoint creates a joint whose rest length is the current anchor distance
func NewDistanceJoint(bodyA, bodyB *actor.RigidBody, anchorA, anchorB mgl64.Vec3) *DistanceJoint {
	j := &DistanceJoint{
		BodyA:      bodyA,
		BodyB:      bodyB,
		AnchorA:    anchorA,
		AnchorB:    anchorB,
		Compliance: DefaultCompliance,
	}
	pA, pB := j.worldAnchors()
	j.Length = pB.Sub(pA).Len()

	return j
}

func (j *DistanceJoint) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return j.BodyA, j.BodyB
}

func (j *DistanceJoint) worldAnchors() (mgl64.Vec3, mgl64.Vec3) {
	return j.BodyA.Transform.PointToWorld(j.AnchorA), j.BodyB.Transform.PointToWorld(j.AnchorB)
}

// generalizedInverseMass of a body for a correction along n applied at r
func generalizedInverseMass(body *actor.RigidBody, r, n mgl64.Vec3) float64 {
	if body.BodyType == actor.BodyTypeStatic {
		return 0
	}
	rn := r.Cross(n)
	return body.InverseMass() + body.GetInverseInertiaWorld().Mul3x1(rn).Dot(rn)
}

// SolvePosition projects the anchors back to the joint length (XPBD)
func (j *DistanceJoint) SolvePosition(dt float64) {
	if j.BodyA.IsSleeping && j.BodyB.IsSleeping {
		return
	}

	pA, pB := j.worldAnchors()
	delta := pB.Sub(pA)
	distance := delta.Len()

	var n mgl64.Vec3
	var c float64
	if distance < 1e-9 {
		if j.Length < 1e-9 {
			return
		}
		n = mgl64.Vec3{0, 1, 0}
		c = -j.Length
	} else {
		n = delta.Mul(1.0 / distance)
		c = distance - j.Length
	}
	if math.Abs(c) < 1e-9 {
		return
	}

	rA := pA.Sub(j.BodyA.Transform.Position)
	rB := pB.Sub(j.BodyB.Transform.Position)
	wA := generalizedInverseMass(j.BodyA, rA, n)
	wB := generalizedInverseMass(j.BodyB, rB, n)
	if wA+wB <= 1e-12 {
		return
	}

	alphaTilde := j.Compliance / (dt * dt)
	deltaLambda := -c / (wA + wB + alphaTilde)
	impulse := n.Mul(deltaLambda)

	// B is pulled towards A when stretched, A towards B
	applyPositionCorrection(j.BodyA, impulse.Mul(-1), rA)
	applyPositionCorrection(j.BodyB, impulse, rB)

	j.BodyA.Awake()
	j.BodyB.Awake()
}

// SolveVelocity damps the relative velocity along the joint axis
func (j *DistanceJoint) SolveVelocity(dt float64) {
	if j.Damping <= 0 {
		return
	}
	if j.BodyA.IsSleeping && j.BodyB.IsSleeping {
		return
	}

	pA, pB := j.worldAnchors()
	delta := pB.Sub(pA)
	distance := delta.Len()
	if distance < 1e-9 {
		return
	}
	n := delta.Mul(1.0 / distance)

	rA := pA.Sub(j.BodyA.Transform.Position)
	rB := pB.Sub(j.BodyB.Transform.Position)
	relative := j.BodyB.VelocityAtPoint(pB).Sub(j.BodyA.VelocityAtPoint(pA)).Dot(n)

	wA := generalizedInverseMass(j.BodyA, rA, n)
	wB := generalizedInverseMass(j.BodyB, rB, n)
	if wA+wB <= 1e-12 {
		return
	}

	lambda := -relative * math.Min(j.Damping*dt*60, 1) / (wA + wB)
	impulse := n.Mul(lambda)

	if j.BodyA.BodyType != actor.BodyTypeStatic {
		j.BodyA.Velocity = j.BodyA.Velocity.Sub(impulse.Mul(j.BodyA.InverseMass()))
		j.BodyA.AngularVelocity = j.BodyA.AngularVelocity.Sub(j.BodyA.GetInverseInertiaWorld().Mul3x1(rA.Cross(impulse)))
		clampSmallVelocities(j.BodyA)
	}
	if j.BodyB.BodyType != actor.BodyTypeStatic {
		j.BodyB.Velocity = j.BodyB.Velocity.Add(impulse.Mul(j.BodyB.InverseMass()))
		j.BodyB.AngularVelocity = j.BodyB.AngularVelocity.Add(j.BodyB.GetInverseInertiaWorld().Mul3x1(rB.Cross(impulse)))
		clampSmallVelocities(j.BodyB)
	}
}
