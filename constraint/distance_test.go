package constraint

import (
	"math"
	"testing"

	"github.com/akmonengine/traction/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func newSphere(position mgl64.Vec3, bodyType actor.BodyType) *actor.RigidBody {
	return actor.NewRigidBody(actor.Transform{Position: position}, &actor.Sphere{Radius: 0.5}, bodyType, 1.0)
}

func anchorDistance(j *DistanceJoint) float64 {
	pA, pB := j.worldAnchors()
	return pB.Sub(pA).Len()
}

// =============================================================================
// DistanceJoint Tests
// =============================================================================

func TestNewDistanceJoint_RestLength(t *testing.T) {
	a := newSphere(mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)
	b := newSphere(mgl64.Vec3{3, 4, 0}, actor.BodyTypeDynamic)
	j := NewDistanceJoint(a, b, mgl64.Vec3{}, mgl64.Vec3{})

	if math.Abs(j.Length-5) > 1e-9 {
		t.Errorf("Length = %v, want 5", j.Length)
	}
	gotA, gotB := j.Bodies()
	if gotA != a || gotB != b {
		t.Error("Bodies() should return the joint bodies in order")
	}
}

func TestDistanceJoint_SolvePosition(t *testing.T) {
	tests := []struct {
		name      string
		typeA     actor.BodyType
		positionB mgl64.Vec3
		length    float64
	}{
		{"stretched against static anchor", actor.BodyTypeStatic, mgl64.Vec3{3, 0, 0}, 2},
		{"compressed against static anchor", actor.BodyTypeStatic, mgl64.Vec3{1, 0, 0}, 2},
		{"two dynamic bodies", actor.BodyTypeDynamic, mgl64.Vec3{0, 0, 5}, 2},
		{"ball socket", actor.BodyTypeDynamic, mgl64.Vec3{0, 1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newSphere(mgl64.Vec3{}, tt.typeA)
			b := newSphere(tt.positionB, actor.BodyTypeDynamic)
			j := &DistanceJoint{BodyA: a, BodyB: b, Length: tt.length, Compliance: DefaultCompliance}

			for range 10 {
				j.SolvePosition(1.0 / 60.0)
			}

			if got := anchorDistance(j); math.Abs(got-tt.length) > 1e-3 {
				t.Errorf("distance = %v, want %v", got, tt.length)
			}
			if tt.typeA == actor.BodyTypeStatic && a.Transform.Position != (mgl64.Vec3{}) {
				t.Errorf("static body moved to %v", a.Transform.Position)
			}
		})
	}
}

func TestDistanceJoint_SolvePosition_EqualMassesSplitCorrection(t *testing.T) {
	a := newSphere(mgl64.Vec3{0, 0, 0}, actor.BodyTypeDynamic)
	b := newSphere(mgl64.Vec3{4, 0, 0}, actor.BodyTypeDynamic)
	j := &DistanceJoint{BodyA: a, BodyB: b, Length: 2}

	j.SolvePosition(1.0 / 60.0)

	if math.Abs(a.Transform.Position.X()-1) > 1e-6 || math.Abs(b.Transform.Position.X()-3) > 1e-6 {
		t.Errorf("positions = %v, %v, want x=1 and x=3", a.Transform.Position, b.Transform.Position)
	}
}

func TestDistanceJoint_SolveVelocity_Damping(t *testing.T) {
	a := newSphere(mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)
	b := newSphere(mgl64.Vec3{2, 0, 0}, actor.BodyTypeDynamic)
	b.Velocity = mgl64.Vec3{1, 0.5, 0}
	j := &DistanceJoint{BodyA: a, BodyB: b, Length: 2, Damping: 1}

	j.SolveVelocity(1.0 / 60.0)

	if math.Abs(b.Velocity.X()) > 1e-9 {
		t.Errorf("velocity along the joint = %v, want 0", b.Velocity.X())
	}
	if math.Abs(b.Velocity.Y()-0.5) > 1e-9 {
		t.Errorf("tangential velocity = %v, want 0.5 (untouched)", b.Velocity.Y())
	}
}

func TestDistanceJoint_SleepingBodiesAreSkipped(t *testing.T) {
	a := newSphere(mgl64.Vec3{0, 0, 0}, actor.BodyTypeDynamic)
	b := newSphere(mgl64.Vec3{4, 0, 0}, actor.BodyTypeDynamic)
	a.Sleep()
	b.Sleep()
	j := &DistanceJoint{BodyA: a, BodyB: b, Length: 2}

	j.SolvePosition(1.0 / 60.0)

	if b.Transform.Position != (mgl64.Vec3{4, 0, 0}) {
		t.Errorf("sleeping body moved to %v", b.Transform.Position)
	}
}
