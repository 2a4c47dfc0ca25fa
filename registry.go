package traction

import (
	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/constraint"
	"github.com/akmonengine/traction/scratch"
	"github.com/sasha-s/go-deadlock"
)

// Vehicle is a body driven before each step. *vehicle.Vehicle implements it.
type Vehicle interface {
	RigidBody() *actor.RigidBody
	PreUpdate(dt float64, ground Ground, arena *scratch.Arena)
}

// Entity is a host object attached to the physics. Its body, if any, is added
// with its own AddBody operation.
type Entity interface {
	RigidBody() *actor.RigidBody
	PrePhysicsUpdate(dt float64)
	PostPhysicsUpdate(dt float64)
}

// set keeps insertion order so the world iterates deterministically.
type set[T comparable] struct {
	items []T
	index map[T]int
}

func newSet[T comparable]() set[T] {
	return set[T]{index: make(map[T]int)}
}

func (s *set[T]) add(item T) bool {
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = len(s.items)
	s.items = append(s.items, item)
	return true
}

func (s *set[T]) remove(item T) bool {
	i, ok := s.index[item]
	if !ok {
		return false
	}
	delete(s.index, item)
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

func (s *set[T]) contains(item T) bool {
	_, ok := s.index[item]
	return ok
}

func (s *set[T]) clear() {
	clear(s.items)
	s.items = s.items[:0]
	clear(s.index)
}

// Registry tracks what the operations added to the space. It is written by
// the simulation goroutine only, reads are safe inside the tick window.
type Registry struct {
	mu       deadlock.RWMutex
	bodies   set[*actor.RigidBody]
	vehicles set[Vehicle]
	joints   set[constraint.Joint]
	entities set[Entity]
}

func NewRegistry() *Registry {
	return &Registry{
		bodies:   newSet[*actor.RigidBody](),
		vehicles: newSet[Vehicle](),
		joints:   newSet[constraint.Joint](),
		entities: newSet[Entity](),
	}
}

func (r *Registry) addBody(b *actor.RigidBody) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies.add(b)
}

func (r *Registry) removeBody(b *actor.RigidBody) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies.remove(b)
}

func (r *Registry) addVehicle(v Vehicle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vehicles.add(v)
}

func (r *Registry) removeVehicle(v Vehicle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vehicles.remove(v)
}

func (r *Registry) addJoint(j constraint.Joint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joints.add(j)
}

func (r *Registry) removeJoint(j constraint.Joint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joints.remove(j)
}

func (r *Registry) addEntity(e Entity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entities.add(e)
}

func (r *Registry) removeEntity(e Entity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entities.remove(e)
}

func (r *Registry) HasBody(b *actor.RigidBody) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bodies.contains(b)
}

func (r *Registry) HasVehicle(v Vehicle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vehicles.contains(v)
}

func (r *Registry) HasJoint(j constraint.Joint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.joints.contains(j)
}

func (r *Registry) HasEntity(e Entity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities.contains(e)
}

// Counts returns the size of each set.
func (r *Registry) Counts() (bodies, vehicles, joints, entities int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bodies.items), len(r.vehicles.items), len(r.joints.items), len(r.entities.items)
}

// Vehicles is the live slice, valid until the next operation is applied.
func (r *Registry) Vehicles() []Vehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vehicles.items
}

// Entities is the live slice, valid until the next operation is applied.
func (r *Registry) Entities() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities.items
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bodies.clear()
	r.vehicles.clear()
	r.joints.clear()
	r.entities.clear()
}
