package traction

import (
	"fmt"
	"log"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/constraint"
)

type OperationKind uint8

const (
	AddBody OperationKind = iota
	RemoveBody
	AddVehicle
	RemoveVehicle
	AddConstraint
	RemoveConstraint
	AddEntity
	RemoveEntity
)

var operationNames = [...]string{
	AddBody:          "AddBody",
	RemoveBody:       "RemoveBody",
	AddVehicle:       "AddVehicle",
	RemoveVehicle:    "RemoveVehicle",
	AddConstraint:    "AddConstraint",
	RemoveConstraint: "RemoveConstraint",
	AddEntity:        "AddEntity",
	RemoveEntity:     "RemoveEntity",
}

func (k OperationKind) String() string {
	if int(k) < len(operationNames) {
		return operationNames[k]
	}
	return fmt.Sprintf("OperationKind(%d)", uint8(k))
}

// Operation is a mutation of the space queued by any goroutine and applied
// once by the simulation goroutine. Then, when set, runs right after and may
// return another operation, applied immediately: it sees the new state, to
// add a joint once its bodies are in for instance.
type Operation struct {
	Kind   OperationKind
	Target any
	Then   func() *Operation
}

func (op *Operation) String() string {
	return fmt.Sprintf("%s(%T)", op.Kind, op.Target)
}

// Apply executes the operation then its continuation. Registry violations
// and a panicking continuation are logged, never raised.
func (op *Operation) Apply(space *Space, registry *Registry, l *log.Logger) {
	op.apply(space, registry, l)

	if op.Then == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.Printf("FATAL: continuation of %s panicked: %v", op, r)
		}
	}()
	if next := op.Then(); next != nil {
		next.Apply(space, registry, l)
	}
}

func (op *Operation) apply(space *Space, registry *Registry, l *log.Logger) {
	switch op.Kind {
	case AddVehicle:
		v, ok := op.Target.(Vehicle)
		if !ok {
			op.wrongTarget(l)
			return
		}
		if !registry.addVehicle(v) {
			l.Printf("FATAL: vehicle %p is already registered", v)
		}
		addBody(space, registry, l, v.RigidBody())

	case AddBody:
		body, ok := op.Target.(*actor.RigidBody)
		if !ok || body == nil {
			op.wrongTarget(l)
			return
		}
		addBody(space, registry, l, body)

	case RemoveVehicle:
		v, ok := op.Target.(Vehicle)
		if !ok {
			op.wrongTarget(l)
			return
		}
		if !registry.removeVehicle(v) {
			l.Printf("FATAL: vehicle %p is not registered", v)
		}
		removeBody(space, registry, l, v.RigidBody())

	case RemoveBody:
		body, ok := op.Target.(*actor.RigidBody)
		if !ok || body == nil {
			op.wrongTarget(l)
			return
		}
		removeBody(space, registry, l, body)

	case AddEntity:
		e, ok := op.Target.(Entity)
		if !ok {
			op.wrongTarget(l)
			return
		}
		if !registry.addEntity(e) {
			l.Printf("FATAL: entity %p is already registered", e)
		}

	case RemoveEntity:
		e, ok := op.Target.(Entity)
		if !ok {
			op.wrongTarget(l)
			return
		}
		if !registry.removeEntity(e) {
			l.Printf("FATAL: entity %p is not registered", e)
		}
		// bodies resting on it must not float
		if body := e.RigidBody(); body != nil {
			space.WakeNear(body.Shape.GetAABB().Expand(wakeRadius), body)
		}

	case AddConstraint:
		j, ok := op.Target.(constraint.Joint)
		if !ok || j == nil {
			op.wrongTarget(l)
			return
		}
		if !registry.addJoint(j) {
			l.Printf("FATAL: joint %p is already registered", j)
			return
		}
		space.AddJoint(j)

	case RemoveConstraint:
		j, ok := op.Target.(constraint.Joint)
		if !ok || j == nil {
			op.wrongTarget(l)
			return
		}
		if !registry.removeJoint(j) {
			l.Printf("FATAL: joint %p is not registered", j)
			return
		}
		space.RemoveJoint(j)

	default:
		l.Printf("FATAL: unknown operation %s", op)
	}
}

func (op *Operation) wrongTarget(l *log.Logger) {
	l.Printf("FATAL: %s cannot apply to %T", op.Kind, op.Target)
}

func addBody(space *Space, registry *Registry, l *log.Logger, body *actor.RigidBody) {
	if body == nil {
		l.Print("FATAL: cannot add a nil body")
		return
	}
	if !registry.addBody(body) {
		l.Printf("FATAL: body %s is already registered", body.ID)
		return
	}
	space.AddBody(body)
}

func removeBody(space *Space, registry *Registry, l *log.Logger, body *actor.RigidBody) {
	if body == nil {
		return
	}
	if !registry.removeBody(body) {
		l.Printf("FATAL: body %s is not registered", body.ID)
		return
	}
	space.RemoveBody(body)
}
