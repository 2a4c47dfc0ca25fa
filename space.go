package traction

import (
	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/constraint"
	"github.com/akmonengine/traction/scratch"
	"github.com/akmonengine/traction/vehicle"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultWorkers  = 1
	DefaultSubsteps = 1

	// groundProbe is how far above a ground point the surface is searched,
	// deeper penetrations are not resolved
	groundProbe = 1.0
	// wakeRadius around a removed entity, sleeping bodies in it are woken up
	wakeRadius = 10.0
)

// Ground is the height query shared by the space contacts and the wheels.
type Ground = vehicle.Ground

// Space is the dynamics space. Only the simulation goroutine mutates it.
type Space struct {
	// List of all rigid bodies in the space
	Bodies []*actor.RigidBody
	Joints []constraint.Joint
	// Gravity acceleration (m/s², or N/kg)
	Gravity  mgl64.Vec3
	Substeps int
	Workers  int
	// Ground may be nil, bodies then fall forever
	Ground Ground

	Events *Events

	contacts []*constraint.GroundContact
	touching []*constraint.GroundContact
}

func NewSpace(ground Ground, events *Events) *Space {
	if events == nil {
		events = NewEvents()
	}
	return &Space{
		Gravity:  mgl64.Vec3{0, -9.81, 0},
		Substeps: DefaultSubsteps,
		Workers:  DefaultWorkers,
		Ground:   ground,
		Events:   events,
	}
}

// AddBody adds a rigid body to the space
func (s *Space) AddBody(body *actor.RigidBody) {
	s.Bodies = append(s.Bodies, body)
}

// RemoveBody removes a rigid body from the space, it reports whether the body was there
func (s *Space) RemoveBody(body *actor.RigidBody) bool {
	k := -1
	for i, b := range s.Bodies {
		if b == body {
			k = i
			break
		}
	}
	if k == -1 {
		return false
	}

	s.Bodies = append(s.Bodies[:k], s.Bodies[k+1:]...)
	s.Events.forget(body)
	return true
}

func (s *Space) AddJoint(joint constraint.Joint) {
	s.Joints = append(s.Joints, joint)
}

func (s *Space) RemoveJoint(joint constraint.Joint) bool {
	for i, j := range s.Joints {
		if j == joint {
			s.Joints = append(s.Joints[:i], s.Joints[i+1:]...)
			return true
		}
	}
	return false
}

// WakeNear wakes the sleeping bodies overlapping box, except the given one.
func (s *Space) WakeNear(box actor.AABB, except *actor.RigidBody) int {
	woken := 0
	for _, body := range s.Bodies {
		if body == except || !body.IsSleeping || body.BodyType == actor.BodyTypeStatic {
			continue
		}
		if body.Shape.GetAABB().Overlaps(box) {
			body.Awake()
			woken++
		}
	}
	return woken
}

// Clear drops every body and joint
func (s *Space) Clear() {
	clear(s.Bodies)
	s.Bodies = s.Bodies[:0]
	clear(s.Joints)
	s.Joints = s.Joints[:0]
	s.Events.clearBodies()
}

// Step advances the space by dt. The forces accumulated before the step (the
// wheel forces) act during every substep. arena may be nil.
func (s *Space) Step(dt float64, arena *scratch.Arena) {
	s.Workers = max(DefaultWorkers, s.Workers)
	s.Substeps = max(DefaultSubsteps, s.Substeps)
	h := dt / float64(s.Substeps)

	forces, torques := s.holdForces(arena)

	for i := range s.Substeps {
		if i > 0 {
			s.reapplyForces(forces, torques)
		}
		s.integrate(h)

		contacts := s.detectGround()

		s.solvePosition(h, contacts)
		s.update(h)
		s.solveVelocity(h, contacts)

		s.trySleep(h)
	}

	s.Events.processSleepEvents(s.Bodies)
}

func (s *Space) holdForces(arena *scratch.Arena) (forces, torques []mgl64.Vec3) {
	if s.Substeps == 1 {
		return nil, nil
	}

	n := len(s.Bodies)
	if arena != nil {
		forces, torques = arena.Vec3s(n), arena.Vec3s(n)
	} else {
		forces, torques = make([]mgl64.Vec3, n), make([]mgl64.Vec3, n)
	}
	for i, body := range s.Bodies {
		forces[i] = body.AccumulatedForce()
		torques[i] = body.AccumulatedTorque()
	}
	return forces, torques
}

func (s *Space) reapplyForces(forces, torques []mgl64.Vec3) {
	for i, body := range s.Bodies {
		if forces[i] != (mgl64.Vec3{}) {
			body.AddForce(forces[i])
		}
		if torques[i] != (mgl64.Vec3{}) {
			body.AddTorque(torques[i])
		}
	}
}

func (s *Space) integrate(h float64) {
	task(s.Workers, s.Bodies, func(body *actor.RigidBody) {
		body.Integrate(h, s.Gravity)
	})
}

// detectGround probes the ground points of every awake body. Each contact
// belongs to a single body so they can be solved in parallel.
func (s *Space) detectGround() []*constraint.GroundContact {
	if s.Ground == nil {
		return nil
	}

	for len(s.contacts) < len(s.Bodies) {
		s.contacts = append(s.contacts, &constraint.GroundContact{})
	}
	contacts := s.contacts[:len(s.Bodies)]
	for i, body := range s.Bodies {
		contacts[i].Reset(body)
	}

	task(s.Workers, contacts, func(c *constraint.GroundContact) {
		body := c.Body
		if body.IsSleeping || body.BodyType == actor.BodyTypeStatic {
			return
		}
		for _, p := range body.Shape.GroundPoints(body.Transform) {
			h, ok := s.Ground.SurfaceBelow(p.X(), p.Y()+groundProbe, p.Z(), groundProbe)
			if ok && h > p.Y() {
				c.Points = append(c.Points, constraint.ContactPoint{Position: p, Penetration: h - p.Y()})
			}
		}
	})

	s.touching = s.touching[:0]
	for _, c := range contacts {
		if len(c.Points) > 0 {
			s.touching = append(s.touching, c)
		}
	}
	return s.touching
}

// joints share bodies, they are solved in order on the calling goroutine
func (s *Space) solvePosition(h float64, contacts []*constraint.GroundContact) {
	for _, joint := range s.Joints {
		joint.SolvePosition(h)
	}
	task(s.Workers, contacts, func(c *constraint.GroundContact) {
		c.SolvePosition(h)
	})
}

func (s *Space) update(h float64) {
	task(s.Workers, s.Bodies, func(body *actor.RigidBody) {
		body.Update(h)
	})
}

func (s *Space) solveVelocity(h float64, contacts []*constraint.GroundContact) {
	for _, joint := range s.Joints {
		joint.SolveVelocity(h)
	}
	task(s.Workers, contacts, func(c *constraint.GroundContact) {
		c.SolveVelocity(h)
	})
}

// trySleep sets the body to sleep if its velocity is lower than the threshold, for a given duration
// this method is too simple to use a task, it slows down in multiple goroutines
func (s *Space) trySleep(h float64) {
	for _, body := range s.Bodies {
		body.TrySleep(h, 0.1, 0.05)
	}
}
