package traction

import (
	"math"
	"testing"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/constraint"
	"github.com/akmonengine/traction/scratch"
	"github.com/go-gl/mathgl/mgl64"
)

const dt = 1.0 / 60.0

func stepSpace(s *Space, steps int) {
	arena := scratch.NewArena()
	for range steps {
		arena.Open()
		s.Step(dt, arena)
		arena.Close()
	}
}

// =============================================================================
// Bodies
// =============================================================================

func TestSpace_AddRemove(t *testing.T) {
	s := NewSpace(nil, nil)
	a := newSphere(mgl64.Vec3{})
	b := newSphere(mgl64.Vec3{2, 0, 0})
	s.AddBody(a)
	s.AddBody(b)

	if !s.RemoveBody(a) {
		t.Fatal("RemoveBody(a) = false")
	}
	if s.RemoveBody(a) {
		t.Error("removing twice returned true")
	}
	if len(s.Bodies) != 1 || s.Bodies[0] != b {
		t.Errorf("Bodies = %v", s.Bodies)
	}

	j := constraint.NewDistanceJoint(b, newSphere(mgl64.Vec3{}), mgl64.Vec3{}, mgl64.Vec3{})
	s.AddJoint(j)
	if !s.RemoveJoint(j) || s.RemoveJoint(j) {
		t.Error("RemoveJoint must succeed once")
	}

	s.AddBody(a)
	s.Clear()
	if len(s.Bodies) != 0 || len(s.Joints) != 0 {
		t.Error("Clear kept bodies or joints")
	}
}

// =============================================================================
// Step
// =============================================================================

func TestSpace_FreeFall(t *testing.T) {
	s := NewSpace(nil, nil)
	body := newSphere(mgl64.Vec3{0, 10, 0})
	s.AddBody(body)

	stepSpace(s, 60)

	if y := body.Transform.Position.Y(); y < 4.9 || y > 5.2 {
		t.Errorf("y after 1s = %v, want about 5.1", y)
	}
	if vy := body.Velocity.Y(); math.Abs(vy+9.81) > 1e-6 {
		t.Errorf("vy = %v, want -9.81", vy)
	}
}

func TestSpace_RestsOnGroundAndSleeps(t *testing.T) {
	s := NewSpace(flatGround{}, nil)
	capture := &eventCapture{}
	s.Events.Subscribe(ON_SLEEP, capture.capture)

	body := newSphere(mgl64.Vec3{0, 0.7, 0})
	body.Material.Friction = 0.5
	s.AddBody(body)

	for range 120 {
		stepSpace(s, 1)
		s.Events.flush()
	}

	if y := body.Transform.Position.Y(); math.Abs(y-0.5) > 0.01 {
		t.Errorf("y = %v, want 0.5", y)
	}
	if !body.IsSleeping {
		t.Error("body resting on the ground should sleep")
	}
	if !capture.hasEventType(ON_SLEEP) {
		t.Error("expected ON_SLEEP")
	}
}

func TestSpace_StaticBodiesIgnoreGround(t *testing.T) {
	s := NewSpace(flatGround{level: 5}, nil)
	static := actor.NewRigidBody(actor.Transform{}, &actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, actor.BodyTypeStatic, 0)
	s.AddBody(static)

	stepSpace(s, 10)

	if static.Transform.Position != (mgl64.Vec3{}) {
		t.Errorf("static body moved to %v", static.Transform.Position)
	}
}

func TestSpace_SubstepsKeepForces(t *testing.T) {
	for _, substeps := range []int{1, 4} {
		s := NewSpace(nil, nil)
		s.Gravity = mgl64.Vec3{}
		s.Substeps = substeps
		body := newSphere(mgl64.Vec3{})
		s.AddBody(body)

		body.AddForce(mgl64.Vec3{6 * body.Material.GetMass(), 0, 0})
		stepSpace(s, 1)

		if vx := body.Velocity.X(); math.Abs(vx-6*dt) > 1e-9 {
			t.Errorf("substeps %d: vx = %v, want %v", substeps, vx, 6*dt)
		}
	}
}

func TestSpace_Pendulum(t *testing.T) {
	s := NewSpace(nil, nil)
	s.Substeps = 8
	anchor := actor.NewRigidBody(actor.Transform{Position: mgl64.Vec3{0, 5, 0}}, &actor.Sphere{Radius: 0.1}, actor.BodyTypeStatic, 0)
	bob := newSphere(mgl64.Vec3{2, 5, 0})
	s.AddBody(anchor)
	s.AddBody(bob)
	s.AddJoint(constraint.NewDistanceJoint(anchor, bob, mgl64.Vec3{}, mgl64.Vec3{}))

	stepSpace(s, 60)

	if d := bob.Transform.Position.Sub(anchor.Transform.Position).Len(); math.Abs(d-2) > 0.05 {
		t.Errorf("rope length = %v, want 2", d)
	}
	if bob.Transform.Position.Y() >= 5 {
		t.Error("the bob should swing down")
	}
}

func TestSpace_WakeNear(t *testing.T) {
	s := NewSpace(nil, nil)
	origin := newSphere(mgl64.Vec3{})
	near := newSphere(mgl64.Vec3{5, 0, 0})
	far := newSphere(mgl64.Vec3{30, 0, 0})
	for _, b := range bodiesOf(origin, near, far) {
		b.Sleep()
		s.AddBody(b)
	}

	woken := s.WakeNear(origin.Shape.GetAABB().Expand(wakeRadius), origin)

	if woken != 1 || near.IsSleeping {
		t.Errorf("woken = %d, near sleeping %v", woken, near.IsSleeping)
	}
	if !origin.IsSleeping || !far.IsSleeping {
		t.Error("origin and far bodies must keep sleeping")
	}
}
