// Package scratch provides the per-tick arena used for vector and quaternion
// temporaries during force and transform math.
//
// An arena is opened at the start of a simulation tick and closed at its end.
// Closing resets the arena: backing buffers are kept and reused on the next tick.
package scratch

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrAlreadyOpen is returned by Open when the previous tick never closed the arena.
var ErrAlreadyOpen = errors.New("scratch: arena already open, previous tick did not close it")

const defaultCapacity = 256

type Arena struct {
	vecs  []mgl64.Vec3
	quats []mgl64.Quat
	// high water marks, for diagnostics
	peakVecs  int
	peakQuats int
	open      bool
}

func NewArena() *Arena {
	return &Arena{
		vecs:  make([]mgl64.Vec3, 0, defaultCapacity),
		quats: make([]mgl64.Quat, 0, defaultCapacity/4),
	}
}

// Open starts a tick scope. A stale open arena is reset and reported.
func (a *Arena) Open() error {
	if a.open {
		a.Reset()
		a.open = true
		return ErrAlreadyOpen
	}
	a.open = true
	return nil
}

// Close ends the tick scope and releases every slice handed out during it.
func (a *Arena) Close() {
	a.Reset()
}

// Reset drops all allocations and closes the scope, keeping the backing buffers.
func (a *Arena) Reset() {
	a.vecs = a.vecs[:0]
	a.quats = a.quats[:0]
	a.open = false
}

func (a *Arena) IsOpen() bool {
	return a.open
}

// Vec3s returns n zeroed vectors valid until the arena is closed.
func (a *Arena) Vec3s(n int) []mgl64.Vec3 {
	start := len(a.vecs)
	if start+n > cap(a.vecs) {
		// grow: previously returned slices keep pointing into the old buffer, which stays valid
		grown := make([]mgl64.Vec3, start, max(2*cap(a.vecs), start+n))
		copy(grown, a.vecs)
		a.vecs = grown
	}
	a.vecs = a.vecs[:start+n]
	out := a.vecs[start : start+n : start+n]
	clear(out)
	a.peakVecs = max(a.peakVecs, len(a.vecs))

	return out
}

// Quats returns n identity quaternions valid until the arena is closed.
func (a *Arena) Quats(n int) []mgl64.Quat {
	start := len(a.quats)
	if start+n > cap(a.quats) {
		grown := make([]mgl64.Quat, start, max(2*cap(a.quats), start+n))
		copy(grown, a.quats)
		a.quats = grown
	}
	a.quats = a.quats[:start+n]
	out := a.quats[start : start+n : start+n]
	for i := range out {
		out[i] = mgl64.QuatIdent()
	}
	a.peakQuats = max(a.peakQuats, len(a.quats))

	return out
}

// Used returns the number of live vectors and quaternions in the current scope.
func (a *Arena) Used() (vecs, quats int) {
	return len(a.vecs), len(a.quats)
}

// Peak returns the high water marks since the arena was created.
func (a *Arena) Peak() (vecs, quats int) {
	return a.peakVecs, a.peakQuats
}
