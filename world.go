package traction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/constraint"
	"github.com/akmonengine/traction/internal/logger"
	"github.com/akmonengine/traction/scratch"
	"github.com/akmonengine/traction/terrain"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/sync/semaphore"
)

var (
	ErrClosed         = errors.New("traction: physics world is closed")
	ErrTooManyCrashes = errors.New("traction: physics goroutine has crashed too many times, more info can be found in the log")
)

// Stats counts the steps. RequestedTime is the time asked through RequestStep,
// SimulatedTime what was actually stepped: skipped ticks make them drift.
type Stats struct {
	Steps         uint64
	SkippedSteps  uint64
	Crashes       int
	Pending       int
	RequestedTime float64
	SimulatedTime float64
}

// World steps a Space on its own goroutine. The host requests steps and reads
// the simulation between TickStart and TickEnd; every mutation goes through
// Schedule and is applied by the simulation goroutine.
type World struct {
	name   string
	cfg    Config
	logger *log.Logger

	space    *Space
	registry *Registry
	events   *Events
	arena    *scratch.Arena
	terrain  *terrain.Manager

	queueMu deadlock.Mutex
	queue   []*Operation
	spare   []*Operation
	// set by drain, Schedule refuses operations afterward
	closed bool

	// single permit shared by a step and the host tick window
	stepLock *semaphore.Weighted
	wake     chan struct{}
	done     chan struct{}

	pending atomic.Int64
	alive   atomic.Bool
	failed  atomic.Bool
	stop    sync.Once

	statsMu deadlock.Mutex
	stats   Stats
}

// NewWorld creates the space and starts the simulation goroutine.
func NewWorld(cfg Config) *World {
	cfg = cfg.withDefaults()

	w := &World{
		cfg:      cfg,
		logger:   cfg.Logger,
		registry: NewRegistry(),
		events:   NewEvents(),
		arena:    scratch.NewArena(),
		terrain:  cfg.Terrain,
		stepLock: semaphore.NewWeighted(1),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	w.name = fmt.Sprintf("traction-world#%d", cfg.Supervisor.NextWorldID())
	if w.logger == nil {
		w.logger = logger.New(w.name)
	}

	w.space = NewSpace(cfg.Ground, w.events)
	w.space.Gravity = cfg.Gravity
	w.space.Substeps = cfg.Substeps
	w.space.Workers = cfg.Workers

	w.alive.Store(true)
	w.logger.Print("starting a new threaded physics world")
	w.events.Emit(WorldCreatedEvent{World: w.name})

	go w.run()

	return w
}

func (w *World) Name() string {
	return w.name
}

// Events is where listeners subscribe. They run on the simulation goroutine.
func (w *World) Events() *Events {
	return w.events
}

// Space must only be read between TickStart and TickEnd.
func (w *World) Space() *Space {
	return w.space
}

func (w *World) Registry() *Registry {
	return w.registry
}

// RequestStep asks for one more step of Config.TimeStep. It never blocks.
// dt is only accounted in Stats.RequestedTime.
func (w *World) RequestStep(dt float64) error {
	if w.failed.Load() {
		return ErrTooManyCrashes
	}
	if !w.alive.Load() {
		return ErrClosed
	}

	w.pending.Add(1)
	w.statsMu.Lock()
	w.stats.RequestedTime += dt
	w.statsMu.Unlock()
	w.signal()

	return nil
}

// Pending is the number of requested steps not done yet.
func (w *World) Pending() int {
	return max(0, int(w.pending.Load()))
}

// TickStart waits for the running step, if any, and keeps the next ones from
// starting until TickEnd.
func (w *World) TickStart() {
	// never fails with a background context
	_ = w.stepLock.Acquire(context.Background(), 1)
}

// TickStartContext is TickStart giving up when ctx is done. TickEnd must only
// follow a nil error.
func (w *World) TickStartContext(ctx context.Context) error {
	return w.stepLock.Acquire(ctx, 1)
}

func (w *World) TickEnd() {
	w.stepLock.Release(1)
}

func (w *World) Stats() Stats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()

	s := w.stats
	s.Pending = w.Pending()
	s.Crashes = w.cfg.Supervisor.Crashes(w.name)
	return s
}

// Schedule queues an operation for the next step.
func (w *World) Schedule(op *Operation) error {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()

	if w.closed || !w.alive.Load() {
		return ErrClosed
	}
	w.queue = append(w.queue, op)

	return nil
}

func (w *World) AddBody(body *actor.RigidBody) error {
	return w.Schedule(&Operation{Kind: AddBody, Target: body})
}

func (w *World) RemoveBody(body *actor.RigidBody) error {
	return w.Schedule(&Operation{Kind: RemoveBody, Target: body})
}

func (w *World) AddVehicle(v Vehicle) error {
	return w.Schedule(&Operation{Kind: AddVehicle, Target: v})
}

func (w *World) RemoveVehicle(v Vehicle) error {
	return w.Schedule(&Operation{Kind: RemoveVehicle, Target: v})
}

func (w *World) AddJoint(j constraint.Joint) error {
	return w.Schedule(&Operation{Kind: AddConstraint, Target: j})
}

func (w *World) RemoveJoint(j constraint.Joint) error {
	return w.Schedule(&Operation{Kind: RemoveConstraint, Target: j})
}

func (w *World) AddEntity(e Entity) error {
	return w.Schedule(&Operation{Kind: AddEntity, Target: e})
}

func (w *World) RemoveEntity(e Entity) error {
	return w.Schedule(&Operation{Kind: RemoveEntity, Target: e})
}

// OnCacheStale matches terrain.File.OnStale: it reports a wiped terrain cache.
func (w *World) OnCacheStale(path string, version int16) {
	w.logger.Printf("WARN: terrain cache %s had version %d, it was erased", path, version)
	w.events.Emit(CacheStaleWipedEvent{Path: path, Version: version})
}

// Shutdown stops the loop and waits for it. Queued operations are applied,
// then the space and the registry are cleared. Call it outside the tick window.
func (w *World) Shutdown() {
	w.stop.Do(func() {
		w.logger.Print("terminating the physics world")
		w.alive.Store(false)
		w.pending.Store(0)
		w.signal()
	})
	<-w.done
}

func (w *World) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *World) run() {
	defer close(w.done)

	for w.alive.Load() {
		if !w.turn() {
			break
		}
		if w.pending.Load() <= 0 && w.alive.Load() {
			w.idle()
		}
	}

	w.logger.Print("unloading the physics world")
	w.drain()
	w.space.Clear()
	w.registry.Clear()
	w.safeFlush()
	w.logger.Print("physics world cleared")
}

func (w *World) idle() {
	timer := time.NewTimer(w.cfg.IdleSleep)
	defer timer.Stop()

	select {
	case <-w.wake:
	case <-timer.C:
	}
}

// turn runs one pending step. A panic is recovered here: the lock is released,
// the crash counted and the arena reset. It returns false when the loop must stop.
func (w *World) turn() (keepRunning bool) {
	if w.pending.Load() <= 0 {
		return true
	}

	held := false
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if held {
			w.TickEnd()
		}
		keepRunning = w.crashed(r)
	}()

	w.TickStart()
	held = true

	if n := w.pending.Load(); n > 1 {
		skipped := n - 1
		w.logger.Printf("WARN: too slow, physics will skip %d simulation ticks", skipped)
		w.events.Emit(TicksSkippedEvent{Skipped: int(skipped)})
		w.pending.Add(-skipped)
		w.statsMu.Lock()
		w.stats.SkippedSteps += uint64(skipped)
		w.statsMu.Unlock()
	}

	if w.pending.Load() > 0 {
		w.step()
		w.pending.Add(-1)
	}

	held = false
	w.TickEnd()

	return true
}

func (w *World) step() {
	dt := w.cfg.TimeStep

	if err := w.arena.Open(); err != nil {
		w.logger.Printf("WARN: %v", err)
	}

	w.applyOperations()

	entities := w.registry.Entities()
	for _, e := range entities {
		e.PrePhysicsUpdate(dt)
	}
	for _, v := range w.registry.Vehicles() {
		v.PreUpdate(dt, w.space.Ground, w.arena)
	}

	w.space.Step(dt, w.arena)

	for _, e := range entities {
		e.PostPhysicsUpdate(dt)
	}
	if w.terrain != nil {
		w.terrain.Tick(w.space.Bodies)
	}

	w.arena.Close()
	w.events.flush()

	w.statsMu.Lock()
	w.stats.Steps++
	w.stats.SimulatedTime += dt
	w.statsMu.Unlock()
}

func (w *World) takeQueue() []*Operation {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()

	ops := w.queue
	w.queue = w.spare[:0]
	w.spare = ops
	return ops
}

func (w *World) applyOperations() {
	ops := w.takeQueue()
	for _, op := range ops {
		w.applyOperation(op)
	}
	clear(ops)
}

// applyOperation keeps a failing operation from taking the step down with it,
// the next operations of the batch still run.
func (w *World) applyOperation(op *Operation) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Printf("FATAL: %s failed: %v", op, r)
		}
	}()
	op.Apply(w.space, w.registry, w.logger)
}

// drain closes the queue and applies what is left in it
func (w *World) drain() {
	w.queueMu.Lock()
	ops := w.queue
	w.queue = nil
	w.closed = true
	w.queueMu.Unlock()

	for _, op := range ops {
		w.applyOperation(op)
	}
}

// crashed handles a recovered panic. The tick is consumed.
func (w *World) crashed(r any) bool {
	crashes := w.cfg.Supervisor.RecordCrash(w.name)
	w.arena.Reset()
	if w.pending.Load() > 0 {
		w.pending.Add(-1)
	}

	w.logger.Printf("ERROR: %v\n%s", r, debug.Stack())
	w.logger.Print("physics goroutine has crashed, please restart")
	w.events.Emit(WorldCrashedEvent{World: w.name, Crashes: crashes, Reason: r})

	if crashes >= w.cfg.MaxCrashes {
		w.failed.Store(true)
		w.alive.Store(false)
		w.logger.Printf("FATAL: physics goroutine has crashed %d times, stopping", crashes)
		w.events.Emit(TooManyCrashesEvent{World: w.name, Crashes: crashes})
		return false
	}

	w.safeFlush()
	return true
}

// safeFlush delivers the events outside of a step, a listener panic is only logged
func (w *World) safeFlush() {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Printf("ERROR: event listener panicked: %v", r)
		}
	}()
	w.events.flush()
}
