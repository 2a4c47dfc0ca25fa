package constraint

import (
	"math"

	"github.com/akmonengine/traction/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// GroundCompliance is the compliance of the terrain contact, stiffer than joints.
const GroundCompliance = 1e-9

var groundNormal = mgl64.Vec3{0, 1, 0}

type ContactPoint struct {
	Position    mgl64.Vec3
	Penetration float64
}

// GroundContact pushes one body out of the terrain. The terrain is static and
// its normal is taken as +Y: heightfields have no overhangs.
type GroundContact struct {
	Body   *actor.RigidBody
	Points []ContactPoint
}

// Reset reuses the contact for another body, keeping the points buffer.
func (c *GroundContact) Reset(body *actor.RigidBody) {
	c.Body = body
	c.Points = c.Points[:0]
}

// SolvePosition resolves penetration (PBD style, no lambda accumulation)
func (c *GroundContact) SolvePosition(dt float64) {
	body := c.Body
	if len(c.Points) == 0 || body.IsSleeping || body.BodyType == actor.BodyTypeStatic {
		return
	}

	invMass := body.InverseMass()
	invInertia := body.GetInverseInertiaWorld()

	var totalWeight, totalPenetration float64
	for _, point := range c.Points {
		if point.Penetration <= 1e-8 {
			continue
		}
		r := point.Position.Sub(body.Transform.Position)
		rn := r.Cross(groundNormal)
		totalWeight += invMass + invInertia.Mul3x1(rn).Dot(rn)
		totalPenetration += point.Penetration
	}
	if totalWeight <= 1e-8 {
		return
	}

	alphaTilde := GroundCompliance / (dt * dt)
	lambda := totalPenetration / (totalWeight + alphaTilde)
	impulse := groundNormal.Mul(lambda)
	body.Transform.Position = body.Transform.Position.Add(impulse.Mul(invMass))

	// one rotation for all the points
	var torque mgl64.Vec3
	for _, point := range c.Points {
		if point.Penetration <= 1e-8 {
			continue
		}
		torque = torque.Add(point.Position.Sub(body.Transform.Position).Cross(impulse))
	}
	deltaRot := invInertia.Mul3x1(torque)
	if deltaRot.Len() > 1e-10 {
		qDelta := mgl64.Quat{W: 1.0, V: deltaRot.Mul(0.5)}.Normalize()
		body.Transform.Rotation = qDelta.Mul(body.Transform.Rotation).Normalize()
		body.Transform.InverseRotation = body.Transform.Rotation.Inverse()
	}
}

// SolveVelocity removes the velocity into the ground and applies Coulomb friction.
// The terrain never bounces.
func (c *GroundContact) SolveVelocity(dt float64) {
	body := c.Body
	if len(c.Points) == 0 || body.IsSleeping || body.BodyType == actor.BodyTypeStatic {
		return
	}

	invMass := body.InverseMass()
	invInertia := body.GetInverseInertiaWorld()
	friction := body.Material.Friction

	var linear, angular mgl64.Vec3
	for _, point := range c.Points {
		r := point.Position.Sub(body.Transform.Position)
		v := body.VelocityAtPoint(point.Position)
		normalVel := v.Dot(groundNormal)
		if normalVel >= 0 {
			continue
		}

		rn := r.Cross(groundNormal)
		effectiveMass := invMass + invInertia.Mul3x1(rn).Dot(rn)
		if effectiveMass < 1e-10 {
			continue
		}
		lambdaNormal := -normalVel / effectiveMass / float64(len(c.Points))
		normalImpulse := groundNormal.Mul(lambdaNormal)
		linear = linear.Add(normalImpulse.Mul(invMass))
		angular = angular.Add(invInertia.Mul3x1(r.Cross(normalImpulse)))

		tangentVel := v.Sub(groundNormal.Mul(normalVel))
		tangentSpeed := tangentVel.Len()
		if tangentSpeed <= 1e-6 || friction <= 0 {
			continue
		}
		tangentDir := tangentVel.Mul(1.0 / tangentSpeed)
		rt := r.Cross(tangentDir)
		effectiveMassTangent := invMass + invInertia.Mul3x1(rt).Dot(rt)
		if effectiveMassTangent < 1e-10 {
			continue
		}

		// Coulomb's law: |F_friction| ≤ μ * |F_normal|
		lambdaTangent := math.Min(tangentSpeed/effectiveMassTangent/float64(len(c.Points)), friction*lambdaNormal)
		frictionImpulse := tangentDir.Mul(-lambdaTangent)
		linear = linear.Add(frictionImpulse.Mul(invMass))
		angular = angular.Add(invInertia.Mul3x1(r.Cross(frictionImpulse)))
	}

	body.Velocity = body.Velocity.Add(linear)
	body.AngularVelocity = body.AngularVelocity.Add(angular)
	clampSmallVelocities(body)
}
