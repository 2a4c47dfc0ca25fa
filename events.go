package traction

import (
	"github.com/akmonengine/traction/actor"
	"github.com/sasha-s/go-deadlock"
)

const (
	WORLD_CREATED EventType = iota
	WORLD_CRASHED
	TOO_MANY_CRASHES
	CACHE_STALE_WIPED
	TICKS_SKIPPED
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// World lifecycle events
type WorldCreatedEvent struct {
	World string
}

func (e WorldCreatedEvent) Type() EventType { return WORLD_CREATED }

type WorldCrashedEvent struct {
	World   string
	Crashes int
	Reason  any
}

func (e WorldCrashedEvent) Type() EventType { return WORLD_CRASHED }

type TooManyCrashesEvent struct {
	World   string
	Crashes int
}

func (e TooManyCrashesEvent) Type() EventType { return TOO_MANY_CRASHES }

// CacheStaleWipedEvent is sent when an outdated terrain cache was erased
type CacheStaleWipedEvent struct {
	Path    string
	Version int16
}

func (e CacheStaleWipedEvent) Type() EventType { return CACHE_STALE_WIPED }

type TicksSkippedEvent struct {
	Skipped int
}

func (e TicksSkippedEvent) Type() EventType { return TICKS_SKIPPED }

// Sleep/Wake events
type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager. Subscribe and Emit are safe from any goroutine, listeners
// run on the simulation goroutine when the buffer is flushed.
type Events struct {
	mu deadlock.Mutex
	// Listeners by event type
	listeners map[EventType][]EventListener
	// Event buffer to send at flush
	buffer  []Event
	sending []Event

	// only touched by the simulation goroutine
	sleepStates map[*actor.RigidBody]bool
}

func NewEvents() *Events {
	return &Events{
		listeners:   make(map[EventType][]EventListener),
		buffer:      make([]Event, 0, 64),
		sleepStates: make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// Emit buffers an event until the next flush
func (e *Events) Emit(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.buffer = append(e.buffer, event)
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = body.IsSleeping
			continue
		}

		if !trackedState && body.IsSleeping {
			e.Emit(SleepEvent{Body: body})
			e.sleepStates[body] = true
		} else if trackedState && !body.IsSleeping {
			e.Emit(WakeEvent{Body: body})
			e.sleepStates[body] = false
		}
	}
}

func (e *Events) forget(body *actor.RigidBody) {
	delete(e.sleepStates, body)
}

func (e *Events) clearBodies() {
	clear(e.sleepStates)
}

// flush sends all buffered events and clears the buffer. Listeners may Emit,
// those events wait for the next flush.
func (e *Events) flush() {
	e.mu.Lock()
	e.buffer, e.sending = e.sending[:0], e.buffer
	e.mu.Unlock()

	for _, event := range e.sending {
		e.mu.Lock()
		listeners := e.listeners[event.Type()]
		e.mu.Unlock()

		for _, listener := range listeners {
			listener(event)
		}
	}
	clear(e.sending)
	e.sending = e.sending[:0]
}
